// Package format renders sizes for progress output.
package format

import "fmt"

var binaryUnits = []string{"KiB", "MiB", "GiB", "TiB", "PiB"}

// Bytes renders n in binary units with one decimal ("1.5 MiB"). Values under
// 1 KiB are exact ("512 B"); negative values count as 0.
func Bytes(n int64) string {
	if n < 1024 {
		if n < 0 {
			n = 0
		}
		return fmt.Sprintf("%d B", n)
	}
	v := float64(n) / 1024
	i := 0
	for v >= 1024 && i < len(binaryUnits)-1 {
		v /= 1024
		i++
	}
	return fmt.Sprintf("%.1f %s", v, binaryUnits[i])
}

// Transfer renders upload progress as "12.0 MiB of 40.0 MiB". With an unknown
// total only the transferred amount is shown.
func Transfer(loaded, total int64) string {
	if total <= 0 {
		return Bytes(loaded)
	}
	if loaded > total {
		loaded = total
	}
	return Bytes(loaded) + " of " + Bytes(total)
}
