package perception

import "testing"

func TestDetectMIME(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"photo.jpg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg"},
		{"diagram.png", "image/png"},
		{"clip.mov", "video/quicktime"},
		{"clip.avi", "video/x-msvideo"},
		{"song.mp3", "audio/mp3"},
		{"song.flac", "audio/flac"},
		{"/some/dir/archive.zip", OctetStream},
		{"noextension", OctetStream},
	}

	for _, tc := range cases {
		if got := DetectMIME(tc.path); got != tc.want {
			t.Errorf("DetectMIME(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestKindLabel(t *testing.T) {
	if got := KindLabel("image/png"); got != "Image" {
		t.Errorf("expected Image, got %q", got)
	}
	if got := KindLabel("audio/flac"); got != "Audio" {
		t.Errorf("expected Audio, got %q", got)
	}
	if got := KindLabel(OctetStream); got != "Application" {
		t.Errorf("expected Application, got %q", got)
	}
}
