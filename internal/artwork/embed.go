package artwork

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/bogem/id3v2/v2"
	"github.com/go-flac/flacpicture"
	flac "github.com/go-flac/go-flac"

	"github.com/ChristopherJMiller/nutune/internal/shared"
)

// Embed returns a copy of an audio file with cover art embedded in its
// tags. The format is chosen by extension; anything other than mp3 or
// flac returns shared.ErrUnsupportedFormat so callers can fall back to
// the untouched bytes.
func Embed(audio, cover []byte, ext string) ([]byte, error) {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "mp3":
		return embedMP3(audio, cover)
	case "flac":
		return embedFLAC(audio, cover)
	default:
		return nil, fmt.Errorf("%w: %q", shared.ErrUnsupportedFormat, ext)
	}
}

func embedMP3(audio, cover []byte) ([]byte, error) {
	var (
		tag  *id3v2.Tag
		rest = audio
	)
	if bytes.HasPrefix(audio, []byte("ID3")) {
		parsed, err := id3v2.ParseReader(bytes.NewReader(audio), id3v2.Options{Parse: true})
		if err != nil {
			return nil, fmt.Errorf("parsing id3 tag: %w", err)
		}
		tag = parsed
		rest = audio[id3TagSize(audio):]
	} else {
		tag = id3v2.NewEmptyTag()
	}

	tag.DeleteFrames(tag.CommonID("Attached picture"))
	tag.AddAttachedPicture(id3v2.PictureFrame{
		Encoding:    id3v2.EncodingUTF8,
		MimeType:    "image/jpeg",
		PictureType: id3v2.PTFrontCover,
		Description: "Front cover",
		Picture:     cover,
	})

	var out bytes.Buffer
	if _, err := tag.WriteTo(&out); err != nil {
		return nil, fmt.Errorf("writing id3 tag: %w", err)
	}
	out.Write(rest)
	return out.Bytes(), nil
}

// id3TagSize reads the synchsafe tag size from an ID3v2 header so the
// audio frames after the tag can be carried over unchanged.
func id3TagSize(audio []byte) int {
	if len(audio) < 10 {
		return 0
	}
	size := int(audio[6])<<21 | int(audio[7])<<14 | int(audio[8])<<7 | int(audio[9])
	total := size + 10
	if audio[5]&0x10 != 0 {
		total += 10 // footer
	}
	if total > len(audio) {
		return len(audio)
	}
	return total
}

func embedFLAC(audio, cover []byte) ([]byte, error) {
	file, err := flac.ParseBytes(bytes.NewReader(audio))
	if err != nil {
		return nil, fmt.Errorf("parsing flac stream: %w", err)
	}

	picture, err := flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, "Front cover", cover, "image/jpeg")
	if err != nil {
		return nil, fmt.Errorf("building picture block: %w", err)
	}
	block := picture.Marshal()

	kept := file.Meta[:0]
	for _, meta := range file.Meta {
		if meta.Type != flac.Picture {
			kept = append(kept, meta)
		}
	}
	file.Meta = append(kept, &block)

	return file.Marshal(), nil
}
