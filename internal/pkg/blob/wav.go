package blob

import (
	"encoding/binary"
	"errors"
)

var ErrNotWAV = errors.New("data is not a RIFF/WAVE container")

// WAVDuration computes the playback duration in seconds of a WAV blob by
// walking its RIFF chunks: duration = dataChunkSize / byteRate. The client
// also reports a duration, but this value is the authoritative one for WAV
// uploads; the client figure is only a hint.
func WAVDuration(data []byte) (float64, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WAVE" {
		return 0, ErrNotWAV
	}

	var byteRate uint32
	var dataSize uint32
	haveFmt := false
	haveData := false

	// Chunks start after the 12-byte RIFF header. Each chunk is an 8-byte
	// header (id + size) followed by size bytes, padded to an even offset.
	offset := 12
	for offset+8 <= len(data) {
		chunkID := string(data[offset : offset+4])
		chunkSize := binary.LittleEndian.Uint32(data[offset+4 : offset+8])
		body := offset + 8

		switch chunkID {
		case "fmt ":
			if int(chunkSize) < 16 || body+16 > len(data) {
				return 0, ErrNotWAV
			}
			byteRate = binary.LittleEndian.Uint32(data[body+8 : body+12])
			haveFmt = true
		case "data":
			dataSize = chunkSize
			haveData = true
			// The data chunk may be truncated if the upload was cut off;
			// clamp to what is actually present.
			if remaining := len(data) - body; int(dataSize) > remaining {
				dataSize = uint32(remaining)
			}
		}

		if haveFmt && haveData {
			break
		}

		offset = body + int(chunkSize)
		if chunkSize%2 == 1 {
			offset++
		}
	}

	if !haveFmt || !haveData || byteRate == 0 {
		return 0, ErrNotWAV
	}

	return float64(dataSize) / float64(byteRate), nil
}
