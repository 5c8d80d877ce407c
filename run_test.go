package main

import (
	"reflect"
	"testing"
)

func TestParseBounds(t *testing.T) {
	b, err := parseBounds("52.6, 52.3, 13.6, 13.2")
	if err != nil {
		t.Fatalf("parseBounds: %v", err)
	}
	want := Bounds{North: 52.6, South: 52.3, East: 13.6, West: 13.2}
	if b != want {
		t.Errorf("got %+v, want %+v", b, want)
	}

	for _, bad := range []string{"", "1,2,3", "a,b,c,d", "1,2,3,4,5"} {
		if _, err := parseBounds(bad); err == nil {
			t.Errorf("parseBounds(%q) should fail", bad)
		}
	}
}

func TestParseZooms(t *testing.T) {
	cases := []struct {
		in   string
		want []int
	}{
		{"3-7", []int{3, 4, 5, 6, 7}},
		{"5-5", []int{5}},
		{"3,5,7", []int{3, 5, 7}},
		{"10", []int{10}},
	}
	for _, c := range cases {
		got, err := parseZooms(c.in)
		if err != nil {
			t.Errorf("parseZooms(%q): %v", c.in, err)
			continue
		}
		if !reflect.DeepEqual(got, c.want) {
			t.Errorf("parseZooms(%q) = %v, want %v", c.in, got, c.want)
		}
	}

	for _, bad := range []string{"", "7-3", "x", "1,y"} {
		if _, err := parseZooms(bad); err == nil {
			t.Errorf("parseZooms(%q) should fail", bad)
		}
	}
}
