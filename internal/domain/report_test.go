package domain

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"
)

func TestScanReport_Finalize_SortAndSummaryAndUTC(t *testing.T) {
	r := ScanReport{
		Path:       "/abs/path",
		DryRun:     true,
		StartedAt:  time.Date(2026, 2, 9, 10, 0, 0, 0, time.FixedZone("X", 8*3600)),
		FinishedAt: time.Date(2026, 2, 9, 10, 0, 1, 0, time.FixedZone("X", 8*3600)),
		Items: []ItemResult{
			{ID: "tt1099212", Status: StatusSkipped},
			{ID: "", Status: StatusFailed}, // config/unmatched 等合成项
			{ID: "tt0000001", Status: StatusProcessed},
			{ID: "", Status: StatusUnmatched},
		},
	}

	r.Finalize()

	if r.Items[0].ID != "tt0000001" || r.Items[1].ID != "tt1099212" || r.Items[2].ID != "" || r.Items[3].ID != "" {
		t.Fatalf("items 排序不符合契约：%v", []string{r.Items[0].ID, r.Items[1].ID, r.Items[2].ID, r.Items[3].ID})
	}
	// id=="" 的条目之间保持原有顺序。
	if r.Items[2].Status != StatusFailed || r.Items[3].Status != StatusUnmatched {
		t.Fatalf("空 id 条目顺序被打乱：%+v", r.Items[2:])
	}
	if r.Summary.Processed != 1 || r.Summary.Skipped != 1 || r.Summary.Failed != 1 || r.Summary.Unmatched != 1 {
		t.Fatalf("summary 统计不正确：%+v", r.Summary)
	}
	if r.OK() {
		t.Fatalf("存在 failed/unmatched 时 OK() 应为 false")
	}

	b, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte("\"started_at\":\"2026-02-09T02:00:00Z\"")) {
		t.Fatalf("started_at 不是 UTC RFC3339：%s", string(b))
	}
}

func TestScanReport_MarshalJSON_NilItems(t *testing.T) {
	b, err := json.Marshal(ScanReport{Path: "/x"})
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte(`"items":[]`)) {
		t.Fatalf("nil items 应输出为 []：%s", string(b))
	}

	b, err = json.Marshal(ScanReport{Items: []ItemResult{{ID: "tt1099212"}}})
	if err != nil {
		t.Fatalf("json.Marshal 失败：%v", err)
	}
	if !bytes.Contains(b, []byte(`"candidates":[]`)) || !bytes.Contains(b, []byte(`"sources":[]`)) || !bytes.Contains(b, []byte(`"attempts":[]`)) {
		t.Fatalf("item 内的 nil 切片应输出为 []：%s", string(b))
	}
}

func TestParseIMDbID(t *testing.T) {
	cases := map[string]string{
		"tt1099212":   "tt1099212",
		" TT10000774": "tt10000774",
		"tt12":        "",
		"nm1099212":   "",
		"":            "",
	}
	for in, want := range cases {
		got, ok := ParseIMDbID(in)
		if string(got) != want || ok != (want != "") {
			t.Fatalf("ParseIMDbID(%q) = %q,%v；期望 %q", in, got, ok, want)
		}
	}
}
