package assets

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// chairDoc builds a document with two meshes: a 2x1x1 seat under a node
// translated by (5,0,0), and a unit cushion with two primitives.
func chairDoc(t *testing.T) *gltf.Document {
	t.Helper()
	doc := gltf.NewDocument()

	seatPos := modeler.WritePosition(doc, [][3]float32{
		{-1, 0, -0.5}, {1, 0, -0.5}, {1, 1, 0.5}, {-1, 1, 0.5},
	})
	seatIdx := modeler.WriteIndices(doc, []uint16{0, 1, 2, 0, 2, 3})

	cushionPos := modeler.WritePosition(doc, [][3]float32{
		{0, 0, 0}, {1, 0, 0}, {0, 1, 0},
	})

	doc.Meshes = []*gltf.Mesh{
		{
			Name: "seat",
			Primitives: []*gltf.Primitive{{
				Indices:    gltf.Index(seatIdx),
				Attributes: map[string]int{gltf.POSITION: seatPos},
			}},
		},
		{
			Name: "cushion",
			Primitives: []*gltf.Primitive{
				{Attributes: map[string]int{gltf.POSITION: cushionPos}},
				{Attributes: map[string]int{gltf.POSITION: cushionPos}},
			},
		},
	}
	doc.Nodes = []*gltf.Node{
		{Name: "chair", Children: []int{1, 2}},
		{Name: "seat", Mesh: gltf.Index(0), Translation: [3]float64{5, 0, 0}},
		{Name: "cushion", Mesh: gltf.Index(1)},
	}
	doc.Scenes[0].Nodes = []int{0}
	return doc
}

func encodeGLB(t *testing.T, doc *gltf.Document) []byte {
	t.Helper()
	var buf bytes.Buffer
	enc := gltf.NewEncoder(&buf)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestBuildScene(t *testing.T) {
	sc, err := BuildScene(chairDoc(t), "chair")
	if err != nil {
		t.Fatalf("BuildScene() error: %v", err)
	}

	meshes := sc.Meshes()
	if len(meshes) != 3 {
		t.Fatalf("meshes = %d, want 3 (seat + 2 cushion primitives)", len(meshes))
	}
	seat := meshes[0].Mesh
	if seat.Name != "seat" {
		t.Errorf("first mesh = %s, want seat", seat.Name)
	}
	if len(seat.Geometry.Indices) != 6 {
		t.Errorf("seat indices = %d, want 6", len(seat.Geometry.Indices))
	}
	if meshes[1].Mesh.Name != "cushion_0" || meshes[2].Mesh.Name != "cushion_1" {
		t.Errorf("cushion primitive names = %s, %s", meshes[1].Mesh.Name, meshes[2].Mesh.Name)
	}
	if got := len(meshes[1].Mesh.Geometry.Indices); got != 3 {
		t.Errorf("generated indices = %d, want 3", got)
	}

	b := sc.Bounds()
	if b.Min.X() != 0 || b.Max.X() != 6 {
		t.Errorf("bounds x = [%v, %v], want [0, 6]", b.Min.X(), b.Max.X())
	}
}

func TestBuildSceneWithoutMeshes(t *testing.T) {
	doc := gltf.NewDocument()
	doc.Nodes = []*gltf.Node{{Name: "empty"}}
	doc.Scenes[0].Nodes = []int{0}

	_, err := BuildScene(doc, "empty")
	if !errors.Is(err, ErrNoScene) {
		t.Errorf("BuildScene() error = %v, want ErrNoScene", err)
	}
}

func TestBuildSceneRejectsCycles(t *testing.T) {
	doc := chairDoc(t)
	doc.Nodes[1].Children = []int{0}
	if _, err := BuildScene(doc, "loop"); err == nil {
		t.Error("expected error for cyclic node graph")
	}
}

func TestFetchRemoteCaches(t *testing.T) {
	glb := encodeGLB(t, chairDoc(t))
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(glb)
	}))
	defer srv.Close()

	f := NewGLTFFetcher(srv.Client(), nil)
	url := srv.URL + "/models/beanbag.glb"
	for i := 0; i < 2; i++ {
		sc, err := f.Fetch(context.Background(), url)
		if err != nil {
			t.Fatalf("Fetch() error: %v", err)
		}
		if sc.Name != "beanbag" {
			t.Errorf("scene name = %q, want beanbag", sc.Name)
		}
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1 (second fetch cached)", got)
	}
	hits, misses := f.Cache().Stats()
	if hits != 1 || misses != 1 {
		t.Errorf("cache stats = %d/%d, want 1/1", hits, misses)
	}
}

func TestInvalidateRefetches(t *testing.T) {
	glb := encodeGLB(t, chairDoc(t))
	var requests atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests.Add(1)
		w.Write(glb)
	}))
	defer srv.Close()

	f := NewGLTFFetcher(srv.Client(), nil)
	url := srv.URL + "/models/beanbag.glb"
	if _, err := f.Fetch(context.Background(), url); err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	f.Invalidate()
	if _, ok := f.Cache().Get(url); ok {
		t.Error("asset still cached after Invalidate")
	}
	if _, err := f.Fetch(context.Background(), url); err != nil {
		t.Fatalf("Fetch() after Invalidate error: %v", err)
	}
	if got := requests.Load(); got != 2 {
		t.Errorf("requests = %d, want 2", got)
	}
}

func TestFetchRemoteStatusError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	f := NewGLTFFetcher(srv.Client(), nil)
	if _, err := f.Fetch(context.Background(), srv.URL+"/missing.glb"); err == nil {
		t.Error("expected error for 404")
	}
}

func TestFetchHonoursCancellation(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer srv.Close()
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	f := NewGLTFFetcher(srv.Client(), nil)
	go func() {
		_, err := f.Fetch(ctx, srv.URL+"/slow.glb")
		errCh <- err
	}()
	cancel()

	select {
	case err := <-errCh:
		if err == nil {
			t.Error("expected error after cancel")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Fetch did not return after cancel")
	}
}

func TestFetchLocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chair.glb")
	if err := os.WriteFile(path, encodeGLB(t, chairDoc(t)), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	f := NewGLTFFetcher(nil, nil)
	sc, err := f.Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(sc.Meshes()) != 3 {
		t.Errorf("meshes = %d, want 3", len(sc.Meshes()))
	}

	if _, err := f.Fetch(context.Background(), filepath.Join(t.TempDir(), "nope.glb")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestFetchCorruptDoesNotCache(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not a model"))
	}))
	defer srv.Close()

	f := NewGLTFFetcher(srv.Client(), nil)
	url := srv.URL + "/bad.glb"
	if _, err := f.Fetch(context.Background(), url); err == nil {
		t.Fatal("expected decode error")
	}
	if _, ok := f.Cache().Get(url); ok {
		t.Error("corrupt asset was kept in cache")
	}
}

func TestSceneName(t *testing.T) {
	tests := []struct{ url, want string }{
		{"https://cdn.example.com/models/beanbag.glb?v=2", "beanbag"},
		{"/tmp/chair.gltf", "chair"},
		{"model", "model"},
	}
	for _, tt := range tests {
		if got := sceneName(tt.url); got != tt.want {
			t.Errorf("sceneName(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}

func TestWatcherDebouncesWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chair.glb")
	if err := os.WriteFile(path, []byte("v1"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}

	changes := make(chan struct{}, 10)
	w, err := NewWatcher(path, 50*time.Millisecond, func() { changes <- struct{}{} }, nil)
	if err != nil {
		t.Fatalf("NewWatcher() error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer w.Stop()

	for i := 0; i < 3; i++ {
		if err := os.WriteFile(path, []byte("v2"), 0644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// A sibling file must not trigger a reload.
	os.WriteFile(filepath.Join(dir, "other.txt"), []byte("x"), 0644)

	select {
	case <-changes:
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
	select {
	case <-changes:
		t.Error("burst of writes reported more than once")
	case <-time.After(300 * time.Millisecond):
	}
}
