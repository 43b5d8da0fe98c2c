package utils

import (
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
)

const thumbWidth = 320

// SaveUploadedImage writes one multipart image to static/uploads/<dir> under a
// uuid filename and renders a thumbnail next to it. Returns the public URL path.
func SaveUploadedImage(file multipart.File, header *multipart.FileHeader, dir string) (string, error) {
	ext := strings.ToLower(filepath.Ext(header.Filename))
	switch ext {
	case ".jpg", ".jpeg", ".png", ".webp":
	default:
		return "", fmt.Errorf("unsupported image type %q", ext)
	}

	filename := uuid.NewString() + ext
	fullDir := filepath.Join("static", "uploads", dir)
	if err := os.MkdirAll(fullDir, os.ModePerm); err != nil {
		return "", err
	}

	path := filepath.Join(fullDir, filename)
	out, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(out, file); err != nil {
		out.Close()
		return "", err
	}
	out.Close()

	// Thumbnail failures are not fatal, the original is already on disk.
	if img, err := imaging.Open(path); err == nil {
		thumb := imaging.Resize(img, thumbWidth, 0, imaging.Lanczos)
		thumbPath := filepath.Join(fullDir, "thumb_"+filename)
		_ = imaging.Save(thumb, thumbPath)
	}

	return "/static/uploads/" + dir + "/" + filename, nil
}

// SaveFormImages stores every file under the given multipart field, up to max.
func SaveFormImages(r *http.Request, fieldName, dir string, max int) ([]string, error) {
	if r.MultipartForm == nil || r.MultipartForm.File == nil {
		return nil, nil
	}
	headers := r.MultipartForm.File[fieldName]
	if len(headers) > max {
		return nil, fmt.Errorf("at most %d photos allowed", max)
	}

	var urls []string
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, err
		}
		url, err := SaveUploadedImage(file, header, dir)
		file.Close()
		if err != nil {
			return nil, err
		}
		urls = append(urls, url)
	}
	return urls, nil
}
