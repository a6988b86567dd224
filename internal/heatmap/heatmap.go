// Package heatmap renders shipping destinations as a standalone HTML page
// with a leaflet heat layer, for a quick look at where orders go.
package heatmap

import (
	"fmt"
	"html/template"
	"io"
)

type Point struct {
	Lat float64
	Lng float64
}

var page = template.Must(template.New("heatmap").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Order heatmap</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css"/>
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<script src="https://unpkg.com/leaflet.heat@0.2.0/dist/leaflet-heat.js"></script>
<style>html, body, #map { height: 100%; margin: 0; }</style>
</head>
<body>
<div id="map"></div>
<script>
var map = L.map('map').setView([{{.CenterLat}}, {{.CenterLng}}], 6);
L.tileLayer('https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png', {
	attribution: '&copy; OpenStreetMap contributors &copy; CARTO'
}).addTo(map);
L.heatLayer([
{{- range .Points}}
	[{{.Lat}}, {{.Lng}}],
{{- end}}
]).addTo(map);
</script>
</body>
</html>
`))

// Write renders the heatmap page for the given points, centered on their
// mean coordinate.
func Write(w io.Writer, points []Point) error {
	if len(points) == 0 {
		return fmt.Errorf("no shipping rows with coordinates")
	}
	var latSum, lngSum float64
	for _, p := range points {
		latSum += p.Lat
		lngSum += p.Lng
	}
	data := struct {
		CenterLat float64
		CenterLng float64
		Points    []Point
	}{
		CenterLat: latSum / float64(len(points)),
		CenterLng: lngSum / float64(len(points)),
		Points:    points,
	}
	if err := page.Execute(w, data); err != nil {
		return fmt.Errorf("render heatmap: %w", err)
	}
	return nil
}
