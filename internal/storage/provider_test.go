package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalFileProviderRoundTrip(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	exists, err := p.Exists(ctx, "state.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, p.Write(ctx, "state.json", []byte(`{"tickets":{}}`)))

	exists, err = p.Exists(ctx, "state.json")
	require.NoError(t, err)
	assert.True(t, exists)

	data, err := p.Read(ctx, "state.json")
	require.NoError(t, err)
	assert.Equal(t, []byte(`{"tickets":{}}`), data)
}

func TestLocalFileProviderCreatesDirectories(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	ctx := context.Background()

	require.NoError(t, p.Write(ctx, "nested/dir/state.json", []byte("x")))

	data, err := p.Read(ctx, "nested/dir/state.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)
}

func TestLocalFileProviderDeleteMissingIsNoop(t *testing.T) {
	p := NewLocalFileProvider(t.TempDir())
	assert.NoError(t, p.Delete(context.Background(), "absent.json"))
}

type fakeS3 struct {
	objects map[string][]byte
}

func (f *fakeS3) GetObject(ctx context.Context, bucket, key string) ([]byte, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, ErrNotFound
	}
	return data, nil
}

func (f *fakeS3) PutObject(ctx context.Context, bucket, key string, data []byte) error {
	f.objects[key] = data
	return nil
}

func (f *fakeS3) HeadObject(ctx context.Context, bucket, key string) error {
	if _, ok := f.objects[key]; !ok {
		return ErrNotFound
	}
	return nil
}

func (f *fakeS3) DeleteObject(ctx context.Context, bucket, key string) error {
	delete(f.objects, key)
	return nil
}

func TestS3FileProviderPrefixing(t *testing.T) {
	fake := &fakeS3{objects: make(map[string][]byte)}
	p := NewS3FileProvider("bucket", "relay", fake)
	ctx := context.Background()

	require.NoError(t, p.Write(ctx, "state.json", []byte("data")))
	assert.Contains(t, fake.objects, "relay/state.json")

	exists, err := p.Exists(ctx, "state.json")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = p.Exists(ctx, "missing.json")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name        string
		config      Config
		expectError bool
	}{
		{
			name:        "local backend",
			config:      Config{Backend: BackendLocal, LocalConfig: &LocalConfig{BaseDir: "/tmp"}},
			expectError: false,
		},
		{
			name:        "local backend missing dir",
			config:      Config{Backend: BackendLocal, LocalConfig: &LocalConfig{}},
			expectError: true,
		},
		{
			name:        "s3 backend missing client",
			config:      Config{Backend: BackendS3, S3Config: &S3Config{Bucket: "b"}},
			expectError: true,
		},
		{
			name:        "unknown backend",
			config:      Config{Backend: "ftp"},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(tt.config)
			if tt.expectError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
