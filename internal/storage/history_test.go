package storage

import (
	"testing"
	"time"
)

func TestRecentSearchesByIdentity(t *testing.T) {
	s := openTestStore(t)
	uid := int64(42)

	records := []SearchRecord{
		{UserID: &uid, SessionID: "sess-a", SearchTerm: "parade", Category: "Community", SearchedAt: baseTime},
		{UserID: &uid, SessionID: "sess-a", SearchTerm: "pothole", Category: "Roads", SearchedAt: baseTime.Add(time.Hour)},
		{SessionID: "sess-b", SearchTerm: "library", SearchedAt: baseTime.Add(2 * time.Hour)},
	}
	for _, r := range records {
		if err := s.SaveSearch(r); err != nil {
			t.Fatalf("SaveSearch: %v", err)
		}
	}

	byUser, err := s.RecentSearches(Identity{UserID: &uid, SessionID: "sess-b"}, 20)
	if err != nil {
		t.Fatalf("RecentSearches(user): %v", err)
	}
	if len(byUser) != 2 || byUser[0].SearchTerm != "pothole" || byUser[1].SearchTerm != "parade" {
		t.Errorf("user history = %+v, want [pothole parade]", byUser)
	}
	if byUser[0].UserID == nil || *byUser[0].UserID != 42 {
		t.Errorf("UserID not round-tripped: %v", byUser[0].UserID)
	}

	bySession, err := s.RecentSearches(Identity{SessionID: "sess-b"}, 20)
	if err != nil {
		t.Fatalf("RecentSearches(session): %v", err)
	}
	if len(bySession) != 1 || bySession[0].SearchTerm != "library" || bySession[0].UserID != nil {
		t.Errorf("session history = %+v", bySession)
	}

	none, err := s.RecentSearches(Identity{}, 20)
	if err != nil || len(none) != 0 {
		t.Errorf("anonymous history = %+v, %v; want empty", none, err)
	}
}

func TestRecentSearchesLimit(t *testing.T) {
	s := openTestStore(t)
	for i := 0; i < 25; i++ {
		if err := s.SaveSearch(SearchRecord{SessionID: "s", SearchTerm: "t", SearchedAt: baseTime.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}
	got, err := s.RecentSearches(Identity{SessionID: "s"}, 20)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 20 {
		t.Fatalf("got %d records, want 20", len(got))
	}
	if !got[0].SearchedAt.Equal(baseTime.Add(24 * time.Minute)) {
		t.Errorf("first record at %v, want the most recent", got[0].SearchedAt)
	}
}

func TestRecentSearchTerms(t *testing.T) {
	s := openTestStore(t)
	terms := []string{"parade", "", "pothole", "parade", "library"}
	for i, term := range terms {
		if err := s.SaveSearch(SearchRecord{SessionID: "s", SearchTerm: term, Category: "X", SearchedAt: baseTime.Add(time.Duration(i) * time.Minute)}); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.RecentSearchTerms(Identity{SessionID: "s"}, 5)
	if err != nil {
		t.Fatalf("RecentSearchTerms: %v", err)
	}
	want := []string{"library", "parade", "pothole"}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got %v, want %v", got, want)
			break
		}
	}
}
