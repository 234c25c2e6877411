package lib

import "testing"
import "fmt"
import "unsafe"
import "bytes"
import "reflect"
import "strings"

var _ = fmt.Sprintf("dummy")

func TestParsecsv(t *testing.T) {
	if x := Parsecsv(""); x != nil {
		t.Errorf("expected nil, got %v", x)
	}
	ref := []string{"64", "128", "256", "1024"}
	if x := Parsecsv(" 64, 128,,256 ,1024\n"); !reflect.DeepEqual(ref, x) {
		t.Errorf("expected %v, got %v", ref, x)
	}
}

func TestMemcpy(t *testing.T) {
	src, dst := make([]byte, 100), make([]byte, 1024)
	for i := 0; i < len(src); i++ {
		src[i] = 0xAB
	}
	n := Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), len(src))
	if n != len(src) {
		t.Fatalf("expected %v, got %v", len(src), n)
	} else if bytes.Compare(dst[:len(src)], src) != 0 {
		t.Fatalf("Memcpy() failed")
	}

	dst, src = make([]byte, 100), make([]byte, 1024)
	for i := 0; i < len(src); i++ {
		src[i] = byte(i)
	}
	n = Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), len(dst))
	if n != len(dst) {
		t.Fatalf("expected %v, got %v", len(dst), n)
	} else if bytes.Compare(dst, src[:len(dst)]) != 0 {
		t.Fatalf("Memcpy() failed")
	}

	if n = Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), 0); n != 0 {
		t.Fatalf("expected %v, got %v", 0, n)
	}
}

func TestMemset(t *testing.T) {
	block := make([]byte, 64)
	Memset(unsafe.Pointer(&block[8]), 0xdd, 48)
	for i, c := range block {
		if (i < 8 || i >= 56) && c != 0 {
			t.Errorf("byte %v: expected %v, got %v", i, 0, c)
		} else if i >= 8 && i < 56 && c != 0xdd {
			t.Errorf("byte %v: expected %v, got %v", i, 0xdd, c)
		}
	}
}

func TestPrettystats(t *testing.T) {
	stats := map[string]interface{}{"chunks": 256}
	if s := Prettystats(stats, false); s != `{"chunks":256}` {
		t.Errorf("unexpected %v", s)
	} else if s = Prettystats(stats, true); !strings.Contains(s, "\n") {
		t.Errorf("unexpected %v", s)
	}
}

func BenchmarkMemcpy(b *testing.B) {
	src, dst := make([]byte, 2048), make([]byte, 2048)
	for i := 0; i < b.N; i++ {
		Memcpy(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), len(src))
	}
}
