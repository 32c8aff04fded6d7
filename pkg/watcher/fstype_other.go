//go:build !linux

package watcher

// DetectFilesystemType is not implemented off Linux; fsnotify is used unless
// polling is forced.
func DetectFilesystemType(path string) FilesystemType {
	return FSTypeUnknown
}
