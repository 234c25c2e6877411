package lib

import "reflect"
import "testing"

func TestSettingsMixin(t *testing.T) {
	setts1 := Settings{"maxchunks": 10}
	setts2 := map[string]interface{}{"source": "mmap"}
	setts3 := Settings{"maxchunks": 20}
	setts := make(Settings).Mixin(setts1, setts2, setts3, nil)
	ref := Settings{"maxchunks": 20, "source": "mmap"}
	if !reflect.DeepEqual(ref, setts) {
		t.Fatalf("expected %v, got %v", ref, setts)
	}
	var empty Settings
	if setts = make(Settings).Mixin(empty); len(setts) != 0 {
		t.Fatalf("expected empty, got %v", setts)
	}
}

func TestSettingsTypes(t *testing.T) {
	setts := Settings{
		"flag": true, "int": 10, "int64": int64(20), "float": float64(30),
		"uint32": uint32(40), "name": "mmap",
	}
	if v := setts.Bool("flag"); v != true {
		t.Errorf("expected %v, got %v", true, v)
	}
	for key, ref := range map[string]int64{"int": 10, "int64": 20, "float": 30, "uint32": 40} {
		if v := setts.Int64(key); v != ref {
			t.Errorf("%v expected %v, got %v", key, ref, v)
		}
	}
	if v := setts.String("name"); v != "mmap" {
		t.Errorf("expected %v, got %v", "mmap", v)
	}

	panics := []func(){
		func() { setts.Bool("missing") },
		func() { setts.Bool("name") },
		func() { setts.Int64("missing") },
		func() { setts.Int64("name") },
		func() { setts.String("missing") },
		func() { setts.String("int") },
	}
	for i, fn := range panics {
		func() {
			defer func() {
				if r := recover(); r == nil {
					t.Errorf("case %v expected panic", i)
				}
			}()
			fn()
		}()
	}
}
