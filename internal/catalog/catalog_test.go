package catalog

import (
	"path/filepath"
	"testing"

	"brandpatrol/internal/models"
)

func openStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "catalog.json"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	records := []models.GenuineRecord{
		{ID: "gp-002", Name: "小猪佩奇绘本全集", ShopName: "童书旗舰店", Platform: "xiaohongshu", Category: "books", Keywords: []string{"佩奇", "绘本"}},
		{ID: "gp-001", Name: "剑桥少儿英语预备级", ShopName: "官方旗舰店", AuthorizedShops: []string{"授权书店"}, Platform: "xiaohongshu", Category: "books", Keywords: []string{"剑桥", "英语"}},
		{ID: "gp-003", Name: "Lego City Set", ShopName: "Lego Official", Platform: "taobao", Category: "toys"},
	}
	for _, rec := range records {
		if err := s.Add(rec); err != nil {
			t.Fatalf("add %s: %v", rec.ID, err)
		}
	}
}

func TestAllSortedByID(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	all := s.All()
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i, want := range []string{"gp-001", "gp-002", "gp-003"} {
		if all[i].ID != want {
			t.Fatalf("all[%d].ID = %q, want %q", i, all[i].ID, want)
		}
	}
}

func TestSearchByName(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	tests := []struct {
		name    string
		needle  string
		wantIDs []string
	}{
		{"substring", "少儿英语", []string{"gp-001"}},
		{"case insensitive", "lego city", []string{"gp-003"}},
		{"no match", "毫无关联", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.SearchByName(tt.needle)
			if len(got) != len(tt.wantIDs) {
				t.Fatalf("got %d records, want %d", len(got), len(tt.wantIDs))
			}
			for i, id := range tt.wantIDs {
				if got[i].ID != id {
					t.Fatalf("got[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestSearchByKeywords(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	got := s.SearchByKeywords([]string{"英语"})
	if len(got) != 1 || got[0].ID != "gp-001" {
		t.Fatalf("got %v, want gp-001", got)
	}
	if got := s.SearchByKeywords([]string{"积木"}); len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
	// Records without keywords are never keyword matches.
	if got := s.SearchByKeywords([]string{"Lego"}); len(got) != 0 {
		t.Fatalf("got %v, want none", got)
	}
}

func TestIsAuthorizedShop(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	tests := []struct {
		name     string
		shop     string
		recordID string
		want     bool
	}{
		{"canonical shop", "官方旗舰店", "gp-001", true},
		{"authorized extra", "授权书店", "gp-001", true},
		{"wrong record scope", "官方旗舰店", "gp-002", false},
		{"any record", "童书旗舰店", "", true},
		{"unknown shop", "盗版小店", "", false},
		{"unknown record", "官方旗舰店", "gp-999", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.IsAuthorizedShop(tt.shop, tt.recordID); got != tt.want {
				t.Fatalf("IsAuthorizedShop(%q, %q) = %v, want %v", tt.shop, tt.recordID, got, tt.want)
			}
		})
	}
}

func TestAddPreservesCreatedAt(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	before, _ := s.Get("gp-001")
	updated := before
	updated.OriginalPrice = 120
	if err := s.Add(updated); err != nil {
		t.Fatalf("update: %v", err)
	}
	after, _ := s.Get("gp-001")
	if !after.CreatedAt.Equal(before.CreatedAt) {
		t.Fatal("update must not reset CreatedAt")
	}
	if !after.UpdatedAt.After(before.UpdatedAt) && !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Fatal("update must refresh UpdatedAt")
	}
}

func TestReopenRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "catalog.json")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	seed(t, s)

	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if got := len(reopened.All()); got != 3 {
		t.Fatalf("reopened len = %d, want 3", got)
	}
	if !reopened.IsAuthorizedShop("授权书店", "gp-001") {
		t.Fatal("authorized shops lost across reopen")
	}
}

func TestStats(t *testing.T) {
	t.Parallel()
	s := openStore(t)
	seed(t, s)

	st := s.Stats()
	if st.Total != 3 {
		t.Fatalf("total = %d, want 3", st.Total)
	}
	if st.ByPlatform["xiaohongshu"] != 2 || st.ByPlatform["taobao"] != 1 {
		t.Fatalf("by platform = %v", st.ByPlatform)
	}
	if st.ByCategory["books"] != 2 || st.ByCategory["toys"] != 1 {
		t.Fatalf("by category = %v", st.ByCategory)
	}
}
