package targzarchiver

import (
	"io"
	"iter"
	"os"

	"github.com/my-player/modelbak/asset"
)

type readableAsset interface {
	asset.Asset
	Open() (io.ReadCloser, error)
}

type readableFileAsset struct {
	asset.Asset
}

func (r readableFileAsset) Open() (io.ReadCloser, error) {
	return os.Open(r.Path())
}

func seqToReadableFileAssets(assets iter.Seq[asset.Asset]) iter.Seq[readableAsset] {
	return func(yield func(readableAsset) bool) {
		for a := range assets {
			if !yield(readableFileAsset{a}) {
				return
			}
		}
	}
}
