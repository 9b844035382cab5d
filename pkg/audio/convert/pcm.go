// ABOUTME: Raw PCM sample codec
// ABOUTME: Decodes any supported byte layout to 24-bit-range int32 samples and back
package convert

import (
	"encoding/binary"

	"github.com/Resonate-Protocol/audiocore/pkg/audio"
)

func byteOrder(f audio.Format) binary.ByteOrder {
	if f.BigEndian {
		return binary.BigEndian
	}
	return binary.LittleEndian
}

// DecodeSamples appends the samples held in data to dst. Samples are scaled
// into the 24-bit range held in an int32, the library-wide working format.
// data must hold whole samples.
func DecodeSamples(dst []int32, data []byte, f audio.Format) []int32 {
	bps := f.BytesPerSample()
	order := byteOrder(f)

	for i := 0; i+bps <= len(data); i += bps {
		b := data[i : i+bps]
		var s int32

		switch f.BitDepth {
		case 8:
			if f.Unsigned {
				s = (int32(b[0]) - 128) << 16
			} else {
				s = int32(int8(b[0])) << 16
			}
		case 16:
			u := order.Uint16(b)
			if f.Unsigned {
				s = audio.SampleFromInt16(int16(int32(u) - 32768))
			} else {
				s = audio.SampleFromInt16(int16(u))
			}
		case 24:
			packed := [3]byte{b[0], b[1], b[2]}
			if f.BigEndian {
				packed = [3]byte{b[2], b[1], b[0]}
			}
			if f.Unsigned {
				s = (int32(packed[0]) | int32(packed[1])<<8 | int32(packed[2])<<16) - 0x800000
			} else {
				s = audio.SampleFrom24Bit(packed)
			}
		case 32:
			u := order.Uint32(b)
			if f.Unsigned {
				s = int32((int64(u) - (1 << 31)) >> 8)
			} else {
				s = int32(u) >> 8
			}
		}

		dst = append(dst, s)
	}

	return dst
}

// EncodeSamples appends samples to dst in the byte layout of f
func EncodeSamples(dst []byte, samples []int32, f audio.Format) []byte {
	order := byteOrder(f)
	var scratch [4]byte

	for _, s := range samples {
		switch f.BitDepth {
		case 8:
			v := s >> 16
			if f.Unsigned {
				dst = append(dst, byte(v+128))
			} else {
				dst = append(dst, byte(int8(v)))
			}
		case 16:
			v := audio.SampleToInt16(s)
			if f.Unsigned {
				order.PutUint16(scratch[:2], uint16(int32(v)+32768))
			} else {
				order.PutUint16(scratch[:2], uint16(v))
			}
			dst = append(dst, scratch[:2]...)
		case 24:
			var packed [3]byte
			if f.Unsigned {
				u := uint32(s + 0x800000)
				packed = [3]byte{byte(u), byte(u >> 8), byte(u >> 16)}
			} else {
				packed = audio.SampleTo24Bit(s)
			}
			if f.BigEndian {
				packed[0], packed[2] = packed[2], packed[0]
			}
			dst = append(dst, packed[:]...)
		case 32:
			v := int64(s) << 8
			if f.Unsigned {
				v += 1 << 31
			}
			order.PutUint32(scratch[:4], uint32(v))
			dst = append(dst, scratch[:4]...)
		}
	}

	return dst
}

// MapChannels converts interleaved samples between channel counts. Only
// identical counts, mono fan-out and mono downmix are supported; callers check
// CanConvert first.
func MapChannels(dst, samples []int32, from, to int) []int32 {
	if from == to {
		return append(dst, samples...)
	}

	frames := len(samples) / from

	if from == 1 {
		for i := 0; i < frames; i++ {
			for ch := 0; ch < to; ch++ {
				dst = append(dst, samples[i])
			}
		}
		return dst
	}

	// Downmix to mono by averaging
	for i := 0; i < frames; i++ {
		var sum int64
		for ch := 0; ch < from; ch++ {
			sum += int64(samples[i*from+ch])
		}
		dst = append(dst, int32(sum/int64(from)))
	}
	return dst
}
