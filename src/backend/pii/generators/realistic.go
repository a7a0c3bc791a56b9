package generators

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
)

// ErrNoRealisticValue is returned by a Realistic source for kinds it does not cover
var ErrNoRealisticValue = errors.New("no realistic value for kind")

// Realistic produces higher-fidelity replacement values from a seed. The same
// seed must always yield the same value.
type Realistic interface {
	Value(ctx context.Context, kind Kind, seed uint64) (string, error)
}

var (
	dateRangeStart = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)
	dateRangeEnd   = time.Date(2024, time.December, 31, 0, 0, 0, 0, time.UTC)
)

// RealisticSeed derives the seed for a Realistic source from hexHash[0:12]
func RealisticSeed(hexHash string) uint64 {
	return seed(hexHash, 0, 12)
}

// FakerRealistic generates values with gofakeit, using a fresh faker per call
// so that output depends only on the seed
type FakerRealistic struct{}

// Value implements Realistic
func (FakerRealistic) Value(ctx context.Context, kind Kind, seed uint64) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	f := gofakeit.New(seed)
	switch kind {
	case KindPerson:
		return f.Name(), nil
	case KindOrganization:
		return f.Company(), nil
	case KindEmail:
		return strings.ToLower(f.FirstName()+"."+f.LastName()) + "@example.com", nil
	case KindPhoneNumber:
		return f.PhoneFormatted(), nil
	case KindSSN:
		ssn := f.SSN()
		if len(ssn) == 9 {
			ssn = ssn[0:3] + "-" + ssn[3:5] + "-" + ssn[5:9]
		}
		return ssn, nil
	case KindCreditCard:
		return f.CreditCardNumber(&gofakeit.CreditCardOptions{Types: []string{"visa"}, Gaps: true}), nil
	case KindLocation:
		addr := f.Address()
		return addr.Street + ", " + addr.City + ", " + addr.State + " " + addr.Zip, nil
	case KindDate:
		return f.DateRange(dateRangeStart, dateRangeEnd).Format("2006-01-02"), nil
	case KindIPAddress:
		return "10." + strings.Join(strings.Split(f.IPv4Address(), ".")[1:], "."), nil
	}
	return "", ErrNoRealisticValue
}
