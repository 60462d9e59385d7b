// Package icc_info inspects ICC profile files without touching the CMM, so
// bad profile pairs are rejected with a useful message before any native
// handle is opened.
package icc_info

import (
	"encoding/binary"
	"fmt"
	"os"
	"strings"
	"unicode/utf16"

	"github.com/go-andiamo/iccarus"
)

type ProfileInfo struct {
	Path        string
	Class       string
	ColorSpace  string
	Version     string
	Description string
	Copyright   string
	Size        int
}

const headerSize = 128

// Inspect parses the profile with iccarus and pulls class and description
// straight from the raw tag table.
func Inspect(path string) (*ProfileInfo, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile %s: %w", path, err)
	}
	defer f.Close()

	profile, err := iccarus.ParseProfile(f, nil)
	if err != nil {
		return nil, fmt.Errorf("parse profile %s: %w", path, err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile %s: %w", path, err)
	}
	if len(raw) < headerSize+4 {
		return nil, fmt.Errorf("profile %s: truncated at %d bytes", path, len(raw))
	}

	info := &ProfileInfo{
		Path:        path,
		Class:       strings.TrimSpace(string(raw[12:16])),
		ColorSpace:  strings.TrimSpace(fmt.Sprint(profile.Header.ColorSpace)),
		Version:     fmt.Sprint(profile.Header.Version),
		Description: descriptionTag(raw),
		Size:        len(raw),
	}
	if cprt, err := profile.TagValue(iccarus.TagHeaderCopyright); err == nil {
		info.Copyright = strings.TrimSpace(fmt.Sprint(cprt))
	}
	return info, nil
}

// ExpectColorSpace fails unless the profile's data color space matches want
// ("RGB", "CMYK", ...).
func ExpectColorSpace(path, want string) (*ProfileInfo, error) {
	info, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(info.ColorSpace, want) {
		return info, fmt.Errorf("profile %s has color space %s, expected %s", path, info.ColorSpace, want)
	}
	return info, nil
}

func (pi *ProfileInfo) String() string {
	desc := pi.Description
	if desc == "" {
		desc = "(no description)"
	}
	return fmt.Sprintf("%s: %s %s v%s, %d bytes, %s", pi.Path, pi.ColorSpace, pi.Class, pi.Version, pi.Size, desc)
}

// descriptionTag walks the tag table for 'desc' and decodes either the v2
// textDescriptionType or a v4 mluc record. Returns "" when absent or
// malformed; the description is informational only.
func descriptionTag(raw []byte) string {
	tagCount := binary.BigEndian.Uint32(raw[headerSize : headerSize+4])
	offset := headerSize + 4
	for i := 0; i < int(tagCount); i++ {
		if offset+12 > len(raw) {
			return ""
		}
		sig := string(raw[offset : offset+4])
		dataOffset := int(binary.BigEndian.Uint32(raw[offset+4 : offset+8]))
		size := int(binary.BigEndian.Uint32(raw[offset+8 : offset+12]))
		offset += 12
		if sig != "desc" {
			continue
		}
		if dataOffset+size > len(raw) || size < 12 {
			return ""
		}
		data := raw[dataOffset : dataOffset+size]
		switch string(data[0:4]) {
		case "desc":
			// textDescriptionType: ASCII count at +8, bytes at +12,
			// NUL-terminated.
			n := int(binary.BigEndian.Uint32(data[8:12]))
			if n <= 1 || 12+n > len(data) {
				return ""
			}
			return strings.TrimRight(string(data[12:12+n]), "\x00")
		case "mluc":
			return decodeMluc(data)
		}
		return ""
	}
	return ""
}

func decodeMluc(data []byte) string {
	if len(data) < 28 {
		return ""
	}
	count := binary.BigEndian.Uint32(data[8:12])
	if count == 0 {
		return ""
	}
	// First record: length at +20, offset at +24, both relative to the tag
	// start; text is UTF-16BE.
	strLen := int(binary.BigEndian.Uint32(data[20:24]))
	strOff := int(binary.BigEndian.Uint32(data[24:28]))
	if strOff+strLen > len(data) || strLen < 2 {
		return ""
	}
	u16 := make([]uint16, 0, strLen/2)
	for i := strOff; i+1 < strOff+strLen; i += 2 {
		u16 = append(u16, binary.BigEndian.Uint16(data[i:i+2]))
	}
	return strings.TrimRight(string(utf16.Decode(u16)), "\x00")
}
