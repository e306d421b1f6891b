package audio

import (
	"fmt"
	"maps"
	"sort"
	"strings"

	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/bogem/id3v2"
)

const coverDescription = "Front Cover"

// id3Frames returns the text frames written for fields, by frame ID.
func id3Frames(f Fields, sep string) map[string]string {
	frames := map[string]string{
		"TALB": f.Album,
		"TPE2": f.AlbumArtist,
		"TDRC": f.Date,
		"TCON": strings.Join(f.Genres, sep),
		"TPE1": strings.Join(f.Artists, sep),
		"TPOS": itoa(f.Disc),
		"TIT2": f.Title,
		"TRCK": itoa(f.Track),
	}
	maps.DeleteFunc(frames, func(_, v string) bool { return v == "" })
	return frames
}

// id3Snapshot renders every frame of tag as comparable text.
func id3Snapshot(tag *id3v2.Tag) map[string]string {
	snap := map[string]string{"version": fmt.Sprint(tag.Version())}
	for id, frames := range tag.AllFrames() {
		values := make([]string, 0, len(frames))
		for _, fr := range frames {
			switch fr := fr.(type) {
			case id3v2.TextFrame:
				values = append(values, strings.TrimRight(fr.Text, "\x00"))
			case id3v2.PictureFrame:
				values = append(values, pictureKey(fr.MimeType, byte(fr.PictureType), fr.Description, fr.Picture))
			default:
				values = append(values, fmt.Sprintf("%T", fr))
			}
		}
		sort.Strings(values)
		snap[id] = strings.Join(values, "\x00")
	}
	return snap
}

func wantID3Snapshot(f Fields, cover *model.Cover, sep string) map[string]string {
	snap := id3Frames(f, sep)
	snap["version"] = "4"
	if cover != nil {
		snap["APIC"] = pictureKey(cover.MIME, id3v2.PTFrontCover, coverDescription, cover.Data)
	}
	return snap
}

func pictureKey(mime string, typ byte, desc string, data []byte) string {
	return fmt.Sprintf("%s|%d|%s|%s", mime, typ, desc, data)
}

// applyID3 replaces the ID3v2.4 tag of an MP3 file.
func applyID3(path string, f Fields, cover *model.Cover, sep string, write bool) (bool, error) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		return false, err
	}
	defer tag.Close()

	if maps.Equal(id3Snapshot(tag), wantID3Snapshot(f, cover, sep)) {
		return false, nil
	}
	if !write {
		return true, nil
	}

	tag.DeleteAllFrames()
	tag.SetVersion(4)
	for id, text := range id3Frames(f, sep) {
		tag.AddTextFrame(id, id3v2.EncodingUTF8, text)
	}

	if cover != nil {
		tag.AddAttachedPicture(id3v2.PictureFrame{
			Encoding:    id3v2.EncodingUTF8,
			MimeType:    cover.MIME,
			PictureType: id3v2.PTFrontCover,
			Description: coverDescription,
			Picture:     cover.Data,
		})
	}

	return true, tag.Save()
}
