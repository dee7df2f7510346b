package storage

type storageError string

// ErrNotFound is returned when the requested asset or event is
// unknown to the storage.
const ErrNotFound = storageError("not found")

func (e storageError) Error() string {
	return string(e)
}
