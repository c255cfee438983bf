// modelinfo is a CLI utility for inspecting chair models and hand-off routing.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/Faultbox/beanbag/internal/appearance"
	"github.com/Faultbox/beanbag/internal/ar"
	"github.com/Faultbox/beanbag/internal/assets"
	"github.com/Faultbox/beanbag/internal/config"
	"github.com/Faultbox/beanbag/internal/engine/scene"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "info":
		cmdInfo(args)
	case "meshes", "ls":
		cmdMeshes(args)
	case "options":
		cmdOptions()
	case "route":
		cmdRoute(args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`modelinfo - bean bag model and AR hand-off utility

Usage:
  modelinfo <command> [options]

Commands:
  info [-size 2] <model>        Show bounds and the normalization scale
  meshes <model>                List meshes with vertex and triangle counts
  options                       List the cover options
  route <user-agent>            Show how a device would be handed off

Examples:
  modelinfo info assets/beanbag.glb
  modelinfo meshes https://cdn.example.com/beanbag.glb
  modelinfo route "Mozilla/5.0 (iPhone; CPU iPhone OS 17_2 like Mac OS X)"`)
}

func load(url string) *scene.Scene {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	f := assets.NewGLTFFetcher(&http.Client{}, nil)
	sc, err := f.Fetch(ctx, url)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return sc
}

func cmdInfo(args []string) {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	size := fs.Float64("size", float64(config.Default().Model.TargetSize), "Target size of the longest side")
	_ = fs.Parse(args)
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modelinfo info [-size 2] <model>")
		os.Exit(1)
	}

	sc := load(fs.Arg(0))
	bounds := sc.Bounds()
	meshes := sc.Meshes()

	var vertices, triangles int
	for _, n := range meshes {
		if g := n.Mesh.Geometry; g != nil {
			vertices += len(g.Positions)
			triangles += len(g.Indices) / 3
		}
	}

	fmt.Printf("Model:     %s\n", fs.Arg(0))
	fmt.Printf("Scene:     %s\n", sc.Name)
	fmt.Printf("Meshes:    %d\n", len(meshes))
	fmt.Printf("Vertices:  %d\n", vertices)
	fmt.Printf("Triangles: %d\n", triangles)
	if bounds.Empty() {
		fmt.Println("Bounds:    empty")
		return
	}
	sz := bounds.Size()
	c := bounds.Center()
	fmt.Printf("Bounds:    min %v max %v\n", bounds.Min, bounds.Max)
	fmt.Printf("Size:      %.3f x %.3f x %.3f\n", sz[0], sz[1], sz[2])
	fmt.Printf("Center:    %.3f, %.3f, %.3f\n", c[0], c[1], c[2])
	fmt.Printf("Scale:     %.4f (longest side -> %.2f)\n", *size/float64(bounds.MaxDimension()), *size)
}

func cmdMeshes(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modelinfo meshes <model>")
		os.Exit(1)
	}

	sc := load(args[0])
	meshes := sc.Meshes()
	sort.Slice(meshes, func(i, j int) bool { return meshes[i].Mesh.Name < meshes[j].Mesh.Name })

	fmt.Printf("%-32s %10s %10s %8s\n", "MESH", "VERTICES", "TRIANGLES", "NORMALS")
	fmt.Println(strings.Repeat("-", 64))
	for _, n := range meshes {
		g := n.Mesh.Geometry
		if g == nil {
			fmt.Printf("%-32s %10s\n", n.Mesh.Name, "(empty)")
			continue
		}
		normals := "no"
		if len(g.Normals) == len(g.Positions) {
			normals = "yes"
		}
		fmt.Printf("%-32s %10d %10d %8s\n", n.Mesh.Name, len(g.Positions), len(g.Indices)/3, normals)
	}
}

func cmdOptions() {
	fmt.Printf("%-3s %-8s %-16s %-8s %9s %9s\n", "#", "ID", "NAME", "COLOR", "ROUGHNESS", "METALNESS")
	for i, o := range appearance.Options() {
		fmt.Printf("%-3d %-8s %-16s %-8s %9.2f %9.2f\n", i+1, o.ID, o.Name, o.Hex(), o.Roughness, o.Metalness)
	}
}

func cmdRoute(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Usage: modelinfo route <user-agent>")
		os.Exit(1)
	}

	ua := strings.Join(args, " ")
	device := ar.Classify(ua)
	route := ar.RouteFor(device)

	fmt.Printf("Device: %s\n", device)
	fmt.Printf("Route:  %s\n", route)

	req := ar.SessionRequest{
		ModelURL:  "https://example.com/beanbag.glb",
		ColorHex:  appearance.Default().Hex(),
		ColorName: appearance.Default().Name,
	}
	if target := ar.LaunchURL(req, device.Platform); target != "" {
		fmt.Printf("Launch: %s\n", target)
	}
}
