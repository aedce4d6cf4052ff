package media

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloudinaryUpload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1_1/demo/image/upload", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "unsigned", r.FormValue("upload_preset"))
		f, _, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		b, _ := io.ReadAll(f)
		assert.Equal(t, "jpeg", string(b))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"secure_url":"https://res.cloudinary.com/demo/cover.jpg"}`))
	}))
	defer srv.Close()

	c, err := NewCloudinary("demo", "unsigned", srv.Client())
	require.NoError(t, err)
	c.SetUploadPrefix(srv.URL)
	url, err := c.Upload(context.Background(), "cover.jpg", strings.NewReader("jpeg"))
	require.NoError(t, err)
	assert.Equal(t, "https://res.cloudinary.com/demo/cover.jpg", url)
}

func TestCloudinaryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Upload preset not found"}}`))
	}))
	defer srv.Close()

	c, err := NewCloudinary("demo", "missing", srv.Client())
	require.NoError(t, err)
	c.SetUploadPrefix(srv.URL)
	_, err = c.Upload(context.Background(), "cover.jpg", strings.NewReader("jpeg"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Upload preset not found")

	_, err = NewCloudinary("", "", nil)
	assert.Error(t, err)
}

type fakePutter struct {
	in   *s3.PutObjectInput
	body string
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	b, _ := io.ReadAll(in.Body)
	f.body = string(b)
	return &s3.PutObjectOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	fp := &fakePutter{}
	up := newS3(fp, "covers", "https://cdn.example/")
	url, err := up.Upload(context.Background(), "Cover.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)

	assert.Equal(t, "covers", *fp.in.Bucket)
	assert.True(t, strings.HasPrefix(*fp.in.Key, "books/"))
	assert.True(t, strings.HasSuffix(*fp.in.Key, ".png"))
	assert.Equal(t, "image/png", *fp.in.ContentType)
	assert.Equal(t, "png-bytes", fp.body)
	assert.Equal(t, "https://cdn.example/"+*fp.in.Key, url)
}
