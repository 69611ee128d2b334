package download

import (
	"strings"
)

//go:generate go run github.com/maxbrunsfeld/counterfeiter/v6 -generate

//counterfeiter:generate . Downloader
type Downloader interface {
	Download(source string, outFilePath string) error
}

var _ Downloader = SelectDLer{}

func NewSelectDLer(youtubedler YoutubeDLer, localdler LocalFileDLer) SelectDLer {
	return SelectDLer{
		youtubedler: youtubedler,
		localdler:   localdler,
	}
}

// SelectDLer routes a song source to the downloader that can handle
// it. yt-dlp takes anything that looks like a URL, it resolves far more
// than just YouTube. Everything else is treated as a local file path.
type SelectDLer struct {
	youtubedler YoutubeDLer
	localdler   LocalFileDLer
}

func (s SelectDLer) Download(source string, outFilePath string) error {
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		return s.youtubedler.Download(source, outFilePath)
	}

	return s.localdler.Download(source, outFilePath)
}
