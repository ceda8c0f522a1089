package xtaf

import "testing"

func TestDateRoundTrip(t *testing.T) {
	d := Date{Year: 2006, Month: 11, Day: 21, Hour: 13, Minute: 45, Second: 30}
	v := EncodeDate(d)
	got := DecodeDate(v)
	if got != d {
		t.Fatalf("round trip mismatch: got %+v, want %+v", got, d)
	}
}

func TestDateSecondTruncation(t *testing.T) {
	d := Date{Year: 2010, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 31}
	v := EncodeDate(d)
	got := DecodeDate(v)
	if got.Second != 30 {
		t.Fatalf("expected odd seconds truncated to 30, got %d", got.Second)
	}
}

func TestDateSeqOrdering(t *testing.T) {
	older := Date{Year: 2020, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 0}
	newer := Date{Year: 2020, Month: 1, Day: 1, Hour: 0, Minute: 0, Second: 2}
	if !(older.Seq() < newer.Seq()) {
		t.Fatalf("expected older.Seq() < newer.Seq(), got %d >= %d", older.Seq(), newer.Seq())
	}
}

func TestEncodeDateYearWrap(t *testing.T) {
	// Year 1980 is the epoch; 1980+0 must encode to the zero low bits.
	v := EncodeDate(Date{Year: 1980})
	if v&0x7F != 0 {
		t.Fatalf("expected zero year field for epoch year, got %#x", v&0x7F)
	}
}
