package audio

import (
	"bytes"
	"slices"

	"github.com/NobeKanai/dvtag/internal/model"
	"github.com/go-flac/flacpicture"
	"github.com/go-flac/flacvorbis"
	"github.com/go-flac/go-flac"
)

// flacComments returns the Vorbis comments written for fields, as
// "KEY=value" entries with one entry per artist and genre.
func flacComments(f Fields) []string {
	var cmts []string
	add := func(key, value string) {
		if value != "" {
			cmts = append(cmts, key+"="+value)
		}
	}

	add(flacvorbis.FIELD_ALBUM, f.Album)
	add("ALBUMARTIST", f.AlbumArtist)
	add(flacvorbis.FIELD_DATE, f.Date)
	add(flacvorbis.FIELD_TITLE, f.Title)
	add(flacvorbis.FIELD_TRACKNUMBER, itoa(f.Track))
	for _, g := range f.Genres {
		add(flacvorbis.FIELD_GENRE, g)
	}
	for _, a := range f.Artists {
		add(flacvorbis.FIELD_ARTIST, a)
	}
	add("DISCNUMBER", itoa(f.Disc))
	return cmts
}

// flacState is the tag content of a FLAC file: every comment of every
// comment block and every picture.
type flacState struct {
	comments []string
	pictures []*flacpicture.MetadataBlockPicture
}

func readFLACState(f *flac.File) (*flacState, error) {
	st := &flacState{}
	for _, block := range f.Meta {
		switch block.Type {
		case flac.VorbisComment:
			cmt, err := flacvorbis.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, err
			}
			st.comments = append(st.comments, cmt.Comments...)
		case flac.Picture:
			pic, err := flacpicture.ParseFromMetaDataBlock(*block)
			if err != nil {
				return nil, err
			}
			st.pictures = append(st.pictures, pic)
		}
	}
	return st, nil
}

func (st *flacState) equal(comments []string, pic *flacpicture.MetadataBlockPicture) bool {
	a, b := slices.Clone(st.comments), slices.Clone(comments)
	slices.Sort(a)
	slices.Sort(b)
	if !slices.Equal(a, b) {
		return false
	}

	if pic == nil {
		return len(st.pictures) == 0
	}
	if len(st.pictures) != 1 {
		return false
	}
	got := st.pictures[0]
	return got.PictureType == pic.PictureType &&
		got.MIME == pic.MIME &&
		got.Description == pic.Description &&
		bytes.Equal(got.ImageData, pic.ImageData)
}

// applyFLAC replaces the comment and picture blocks of a FLAC file.
func applyFLAC(path string, fields Fields, cover *model.Cover, write bool) (bool, error) {
	f, err := flac.ParseFile(path)
	if err != nil {
		return false, err
	}

	st, err := readFLACState(f)
	if err != nil {
		return false, err
	}

	comments := flacComments(fields)

	var pic *flacpicture.MetadataBlockPicture
	if cover != nil {
		pic, err = flacpicture.NewFromImageData(flacpicture.PictureTypeFrontCover, coverDescription, cover.Data, cover.MIME)
		if err != nil {
			return false, err
		}
	}

	if st.equal(comments, pic) {
		return false, nil
	}
	if !write {
		return true, nil
	}

	meta := make([]*flac.MetaDataBlock, 0, len(f.Meta)+2)
	for _, block := range f.Meta {
		if block.Type != flac.VorbisComment && block.Type != flac.Picture {
			meta = append(meta, block)
		}
	}

	cmt := flacvorbis.New()
	cmt.Comments = append(cmt.Comments, comments...)
	cmtBlock := cmt.Marshal()
	meta = append(meta, &cmtBlock)

	if pic != nil {
		picBlock := pic.Marshal()
		meta = append(meta, &picBlock)
	}

	f.Meta = meta
	return true, f.Save(path)
}
