package osutil

import "os"

// FileExists returns whether or not a file exists on the filesystem. Any
// error from os.Stat counts as "doesn't exist".
func FileExists(filename string) bool {
	_, err := os.Stat(filename)
	return err == nil
}
