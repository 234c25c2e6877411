package lib

import "unsafe"
import "strings"
import "encoding/json"

// Parsecsv convert a string of command seperated value into list of string of
// values.
func Parsecsv(input string) []string {
	if input == "" {
		return nil
	}
	ss := strings.Split(input, ",")
	outs := make([]string, 0)
	for _, s := range ss {
		s = strings.Trim(s, " \t\r\n")
		if s == "" {
			continue
		}
		outs = append(outs, s)
	}
	return outs
}

// Memcpy copy memory block of length `ln` from `src` to `dst`. This
// function is useful if memory block is obtained outside golang runtime.
func Memcpy(dst, src unsafe.Pointer, ln int) int {
	if ln <= 0 {
		return 0
	}
	dstnd := unsafe.Slice((*byte)(dst), ln)
	srcnd := unsafe.Slice((*byte)(src), ln)
	return copy(dstnd, srcnd)
}

// Memset fill memory block of length `ln` at `dst` with byte `c`.
func Memset(dst unsafe.Pointer, c byte, ln int) {
	if ln <= 0 {
		return
	}
	block := unsafe.Slice((*byte)(dst), ln)
	for i := range block {
		block[i] = c
	}
}

// Prettystats uses json.MarshalIndent, if pretty is true, instead of
// json.Marshal. If Marshal return error Prettystats will panic.
func Prettystats(stats map[string]interface{}, pretty bool) string {
	if pretty {
		data, err := json.MarshalIndent(stats, "", "  ")
		if err != nil {
			panic(err)
		}
		return string(data)
	}
	data, err := json.Marshal(stats)
	if err != nil {
		panic(err)
	}
	return string(data)
}
