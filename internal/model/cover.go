package model

// Cover is cover art ready for embedding.
type Cover struct {
	// Data holds the encoded image.
	Data []byte

	// MIME is the media type of Data, e.g. "image/png".
	MIME string

	Width  int
	Height int
}
