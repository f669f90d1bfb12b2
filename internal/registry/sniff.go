package registry

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// sniffKind probes the first bytes of a file for known container/format
// signatures, then falls back to extension-based guessing. Extension alone
// is never trusted when the header contradicts it.
func sniffKind(path string) (kind Kind, format string) {
	f, err := os.Open(path)
	if err != nil {
		return kindByExt(path)
	}
	defer f.Close()

	buf := make([]byte, 64)
	n, _ := f.Read(buf)
	buf = buf[:n]

	if k, fmtName, ok := sniffHeader(buf); ok {
		return k, fmtName
	}
	return kindByExt(path)
}

// sniffHeader inspects a magic-number prefix for the container formats the
// kernel cares about: ISO-BMFF (mp4/mov), Matroska/WebM (EBML), common
// uncompressed/compressed audio containers, and common image signatures.
func sniffHeader(buf []byte) (Kind, string, bool) {
	switch {
	case len(buf) >= 12 && bytes.Equal(buf[4:8], []byte("ftyp")):
		return KindVideo, "mp4", true
	case len(buf) >= 4 && bytes.Equal(buf[0:4], []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return KindVideo, "matroska", true
	case len(buf) >= 12 && bytes.Equal(buf[0:4], []byte("RIFF")) && bytes.Equal(buf[8:12], []byte("WAVE")):
		return KindAudio, "wav", true
	case len(buf) >= 4 && bytes.Equal(buf[0:4], []byte("fLaC")):
		return KindAudio, "flac", true
	case len(buf) >= 3 && bytes.Equal(buf[0:3], []byte("ID3")):
		return KindAudio, "mp3", true
	case len(buf) >= 2 && buf[0] == 0xFF && buf[1]&0xE0 == 0xE0:
		return KindAudio, "mp3", true
	case len(buf) >= 8 && bytes.Equal(buf[0:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}):
		return KindImage, "png", true
	case len(buf) >= 3 && buf[0] == 0xFF && buf[1] == 0xD8 && buf[2] == 0xFF:
		return KindImage, "jpeg", true
	}
	return "", "", false
}

func kindByExt(path string) (Kind, string) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "mp4", "mov", "mkv", "avi", "webm", "m4v":
		return KindVideo, ext
	case "mp3", "wav", "flac", "aac", "m4a", "ogg":
		return KindAudio, ext
	case "png", "jpg", "jpeg", "gif", "bmp":
		return KindImage, ext
	default:
		return KindUnknown, ext
	}
}
