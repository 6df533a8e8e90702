package service

import (
	"reflect"
	"testing"

	"github.com/mathieu-neron/pumpwatch/internal/model"
)

func sampleStreams() []model.Stream {
	return []model.Stream{
		{ID: "1", Title: "Frog Party", Symbol: "PEPE", Description: "ribbit", Viewers: 250, Tags: []string{"Live", "Popular", "PEPE"}},
		{ID: "2", Title: "Doge Hour", Symbol: "DOGE", Description: "much wow", Viewers: 100, Tags: []string{"DOGE", "New", "Fresh"}},
		{ID: "3", Title: "Quiet Room", Symbol: "N/A", Description: "No description available", Viewers: 3, Tags: []string{}},
		{ID: "4", Title: "Cat Stream", Symbol: "MEOW", Description: "pepe fans welcome", Viewers: 101, Tags: []string{"Popular", "MEOW", "New"}},
	}
}

func ids(streams []model.Stream) []string {
	out := make([]string, 0, len(streams))
	for _, s := range streams {
		out = append(out, s.ID)
	}
	return out
}

func TestFilterStreams(t *testing.T) {
	tests := []struct {
		name   string
		term   string
		filter model.Filter
		want   []string
	}{
		{"everything", "", model.FilterAll, []string{"1", "2", "3", "4"}},
		{"symbol case-insensitive", "pepe", model.FilterAll, []string{"1", "4"}},
		{"upper-case term", "PEPE", model.FilterAll, []string{"1", "4"}},
		{"title", "hour", model.FilterAll, []string{"2"}},
		{"tag", "fresh", model.FilterAll, []string{"2"}},
		{"trending is strictly above threshold", "", model.FilterTrending, []string{"1", "4"}},
		{"new", "", model.FilterNew, []string{"2", "4"}},
		{"search and filter combine", "pepe", model.FilterNew, []string{"4"}},
		{"no match", "zzz", model.FilterAll, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FilterStreams(sampleStreams(), tt.term, tt.filter, DefaultTrendingThreshold)
			if got == nil {
				t.Fatal("result must not be nil")
			}
			if !reflect.DeepEqual(ids(got), tt.want) {
				t.Errorf("got %v, want %v", ids(got), tt.want)
			}
		})
	}
}

func TestFilterStreams_CustomThreshold(t *testing.T) {
	got := FilterStreams(sampleStreams(), "", model.FilterTrending, 200)
	if !reflect.DeepEqual(ids(got), []string{"1"}) {
		t.Errorf("got %v", ids(got))
	}
}

func TestFilterStreams_Idempotent(t *testing.T) {
	once := FilterStreams(sampleStreams(), "pepe", model.FilterTrending, DefaultTrendingThreshold)
	twice := FilterStreams(once, "pepe", model.FilterTrending, DefaultTrendingThreshold)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("filtering twice changed the result: %v vs %v", ids(once), ids(twice))
	}
}

func TestFilterStreams_DoesNotMutateInput(t *testing.T) {
	in := sampleStreams()
	_ = FilterStreams(in, "doge", model.FilterNew, DefaultTrendingThreshold)
	if !reflect.DeepEqual(in, sampleStreams()) {
		t.Error("input slice was modified")
	}
}
