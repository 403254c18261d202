package processor

import (
	"fmt"
	"strconv"
	"strings"
)

// Highlight is a human-oriented summary line derived from metadata tags.
type Highlight struct {
	Kind    string
	Message string
}

// Highlights summarises the camera, location, capture time and identifiers
// found in the block.
func (b *MetadataBlock) Highlights() []Highlight {
	if b == nil || len(b.Tags) == 0 {
		return nil
	}

	values := b.values()
	var out []Highlight

	if device := deviceHighlight(values); device != nil {
		out = append(out, *device)
	}
	if gps := gpsHighlight(values); gps != nil {
		out = append(out, *gps)
	}
	if ts := timestampHighlight(values); ts != nil {
		out = append(out, *ts)
	}
	for key, vals := range values {
		if strings.Contains(strings.ToLower(key), "serial") && len(vals) > 0 {
			out = append(out, Highlight{Kind: "Identifier", Message: "Unique device identifiers (serial numbers) are present."})
			break
		}
	}
	return out
}

func (b *MetadataBlock) values() map[string][]string {
	values := make(map[string][]string)
	for _, tag := range b.Tags {
		if tag.Name == "" {
			continue
		}
		values[tag.Name] = append(values[tag.Name], strings.TrimSpace(tag.Value))
	}
	return values
}

func gpsHighlight(values map[string][]string) *Highlight {
	latRaw := firstValue(values, "GPSLatitude")
	lonRaw := firstValue(values, "GPSLongitude")
	if latRaw == "" || lonRaw == "" {
		return nil
	}

	lat, okLat := parseGPSCoordinate(latRaw)
	lon, okLon := parseGPSCoordinate(lonRaw)
	if !okLat || !okLon {
		return nil
	}
	if firstValue(values, "GPSLatitudeRef") == "S" {
		lat = -lat
	}
	if firstValue(values, "GPSLongitudeRef") == "W" {
		lon = -lon
	}

	return &Highlight{Kind: "Location", Message: fmt.Sprintf("%.5f, %.5f", lat, lon)}
}

func deviceHighlight(values map[string][]string) *Highlight {
	device := strings.TrimSpace(firstValue(values, "Make") + " " + firstValue(values, "Model"))
	if device == "" {
		device = firstValue(values, "CameraModelName")
	}
	if device == "" {
		return nil
	}

	msg := device
	if deviceType := inferDeviceType(strings.ToLower(device)); deviceType != "" {
		msg += fmt.Sprintf(" (%s)", deviceType)
	}
	return &Highlight{Kind: "Device", Message: msg}
}

func timestampHighlight(values map[string][]string) *Highlight {
	var ts string
	for _, key := range []string{"DateTimeOriginal", "DateTimeDigitized", "DateTime", "ModifyTime"} {
		if ts = firstValue(values, key); ts != "" {
			break
		}
	}
	if ts == "" {
		return nil
	}
	return &Highlight{Kind: "Captured", Message: strings.Replace(ts, ":", "-", 2)}
}

func firstValue(values map[string][]string, key string) string {
	if list, ok := values[key]; ok && len(list) > 0 {
		return list[0]
	}
	return ""
}

func parseGPSCoordinate(raw string) (float64, bool) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "[")
	raw = strings.TrimSuffix(raw, "]")
	parts := strings.Fields(raw)
	if len(parts) == 0 {
		return 0, false
	}

	values := make([]float64, 0, len(parts))
	for _, part := range parts {
		value, ok := parseRational(part)
		if !ok {
			return 0, false
		}
		values = append(values, value)
	}

	switch len(values) {
	case 3:
		return values[0] + values[1]/60.0 + values[2]/3600.0, true
	case 2:
		return values[0] + values[1]/60.0, true
	default:
		return values[0], true
	}
}

func parseRational(part string) (float64, bool) {
	num, den, isFrac := strings.Cut(strings.TrimSpace(part), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, false
	}
	if !isFrac {
		return n, true
	}
	d, err := strconv.ParseFloat(den, 64)
	if err != nil || d == 0 {
		return 0, false
	}
	return n / d, true
}

func inferDeviceType(device string) string {
	switch {
	case strings.Contains(device, "iphone"),
		strings.Contains(device, "pixel"),
		strings.Contains(device, "galaxy"),
		strings.Contains(device, "android"):
		return "smartphone"
	case strings.Contains(device, "ipad"),
		strings.Contains(device, "tablet"):
		return "tablet"
	case strings.Contains(device, "gopro"):
		return "action camera"
	case strings.Contains(device, "dji"):
		return "drone"
	case strings.Contains(device, "canon"),
		strings.Contains(device, "nikon"),
		strings.Contains(device, "sony"),
		strings.Contains(device, "fujifilm"),
		strings.Contains(device, "panasonic"),
		strings.Contains(device, "olympus"),
		strings.Contains(device, "leica"):
		return "camera"
	default:
		return ""
	}
}
