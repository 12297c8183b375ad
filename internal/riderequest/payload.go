package riderequest

import (
	"crypto/rand"

	"github.com/example/swiftride/internal/models"
)

const (
	DefaultRiderName = "Guest Rider"
	phoneDigits      = 10
)

// PhoneFunc produces a stand-in phone number for riders who left it blank.
type PhoneFunc func() string

// BuildPayload applies the submission-time defaults. The input is not modified;
// coordinates are copied as they are.
func BuildPayload(in models.RideRequestInput, phone PhoneFunc) models.RideRequestPayload {
	p := models.RideRequestPayload{
		RiderName:  in.RiderName,
		RiderPhone: in.RiderPhone,
		Pickup:     in.Pickup,
		Dropoff:    in.Dropoff,
	}
	if p.RiderName == "" {
		p.RiderName = DefaultRiderName
	}
	if p.RiderPhone == "" {
		if phone == nil {
			phone = RandomPhone
		}
		p.RiderPhone = phone()
	}
	return p
}

// RandomPhone returns ten uniformly random decimal digits.
func RandomPhone() string {
	out := make([]byte, 0, phoneDigits)
	buf := make([]byte, 16)
	for len(out) < phoneDigits {
		if _, err := rand.Read(buf); err != nil {
			panic(err) // crypto/rand does not fail on supported platforms
		}
		for _, b := range buf {
			// 250 is the largest multiple of 10 below 256; skip the rest to stay unbiased
			if b >= 250 {
				continue
			}
			out = append(out, '0'+b%10)
			if len(out) == phoneDigits {
				break
			}
		}
	}
	return string(out)
}
