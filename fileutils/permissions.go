package fileutils

import "os"

// VerifyWritable probes dirPath by creating and removing a temporary
// file. A nil return means the directory accepts new files.
func VerifyWritable(dirPath string) error {
	fil, err := os.CreateTemp(dirPath, "")
	if err != nil {
		return err
	}
	err = fil.Close()
	if err != nil {
		return err
	}
	err = os.Remove(fil.Name())
	if err != nil {
		return err
	}
	return nil
}
