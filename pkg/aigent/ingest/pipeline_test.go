package ingest

import (
	"reflect"
	"testing"
)

func TestPipelinePreparePreservesCount(t *testing.T) {
	pipeline := NewPipeline(false)

	posts := []string{"first post", "", "third\r\npost"}
	got := pipeline.Prepare(posts)

	want := []string{"first post", "", "third\npost"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prepare = %q, want %q", got, want)
	}
}

func TestPipelineStripMarkup(t *testing.T) {
	post := `Read <a href="https://x.test">the thread</a> &amp; reply`

	plain := NewPipeline(false).Clean(post)
	if plain != post {
		t.Errorf("markup should be kept when stripping is off, got %q", plain)
	}

	stripped := NewPipeline(true).Clean(post)
	if stripped != "Read the thread & reply" {
		t.Errorf("Clean with stripping = %q", stripped)
	}
}

func TestPipelineEmpty(t *testing.T) {
	if got := NewPipeline(true).Prepare(nil); len(got) != 0 {
		t.Errorf("expected empty result, got %v", got)
	}
}
