package ar

import "net/url"

// QRCodeURL returns the image URL of a QR code encoding data, rendered by a
// qrserver-compatible service.
func QRCodeURL(service, size, data string) string {
	sep := "?"
	if u, err := url.Parse(service); err == nil && u.RawQuery != "" {
		sep = "&"
	}
	return service + sep + "size=" + url.QueryEscape(size) + "&data=" + url.QueryEscape(data)
}
