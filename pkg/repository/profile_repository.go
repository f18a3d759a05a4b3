package repository

import (
	"bytes"
	"errors"
	"io/fs"
	"os"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/natefinch/atomic"

	swerrors "github.com/tenkoh/awsswitch/pkg/errors"
)

// newFileMode is used when the credentials file did not exist before a save.
const newFileMode fs.FileMode = 0o600

// FileSystemCredentialStore reads and writes an AWS shared credentials file.
// Every call goes back to disk; nothing is cached between operations.
type FileSystemCredentialStore struct {
	credentialsPath string
}

// DefaultCredentialsPath returns the per-user credentials file location
// (~/.aws/credentials), as resolved by the AWS SDK.
func DefaultCredentialsPath() string {
	return config.DefaultSharedCredentialsFilename()
}

// NewFileSystemCredentialStore creates a store for the default credentials file
func NewFileSystemCredentialStore() *FileSystemCredentialStore {
	return NewFileSystemCredentialStoreWithPath(DefaultCredentialsPath())
}

// NewFileSystemCredentialStoreWithPath creates a store with custom path
func NewFileSystemCredentialStoreWithPath(path string) *FileSystemCredentialStore {
	return &FileSystemCredentialStore{
		credentialsPath: path,
	}
}

// Path returns the credentials file path
func (r *FileSystemCredentialStore) Path() string {
	return r.credentialsPath
}

// Load reads and decodes the credentials file
func (r *FileSystemCredentialStore) Load() (Snapshot, error) {
	data, err := os.ReadFile(r.credentialsPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Snapshot{}, swerrors.NewStoreNotFoundError(r.credentialsPath, err)
		}
		return Snapshot{}, swerrors.NewFileOperationError("read", r.credentialsPath, err)
	}

	s, err := Decode(data)
	if err != nil {
		return Snapshot{}, swerrors.NewStoreParseError(r.credentialsPath, err)
	}
	return s, nil
}

// Save encodes s and replaces the credentials file in a single rename, so a
// reader never sees a partially written file. The previous file mode is kept.
func (r *FileSystemCredentialStore) Save(s Snapshot) error {
	data, err := Encode(s)
	if err != nil {
		return swerrors.NewInternalError(swerrors.CodeInternalError, "Failed to encode credentials").WithWrapped(err)
	}

	mode := newFileMode
	if info, err := os.Stat(r.credentialsPath); err == nil {
		mode = info.Mode().Perm()
	}

	if err := atomic.WriteFile(r.credentialsPath, bytes.NewReader(data)); err != nil {
		return swerrors.NewFileOperationError("write", r.credentialsPath, err)
	}
	if err := os.Chmod(r.credentialsPath, mode); err != nil {
		return swerrors.NewFileOperationError("chmod", r.credentialsPath, err)
	}
	return nil
}
