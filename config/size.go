package config

import "github.com/docker/go-units"

// SizeArgument is a byte count accepted in human form, e.g. "512KB" or
// "2GB". Used both as a kong flag value and in the daemon config.
type SizeArgument struct {
	Size int64 `arg:"" help:"size in bytes"`
}

func (s *SizeArgument) UnmarshalText(text []byte) (err error) {
	s.Size, err = units.FromHumanSize(string(text))
	return
}
