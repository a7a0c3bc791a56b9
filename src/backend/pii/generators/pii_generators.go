// Package generators produces deterministic, format-preserving pseudonyms.
// Every value is derived from the hex SHA-256 digest of the original, so the
// same original always yields the same pseudonym.
package generators

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const defaultMonetaryAmount = "$1,234.56"

var (
	nonAmountChars = regexp.MustCompile(`[^0-9.]`)
	currencyPrefix = regexp.MustCompile(`^[^0-9]*`)
)

// Hash returns the hex SHA-256 digest of original
func Hash(original string) string {
	sum := sha256.Sum256([]byte(original))
	return hex.EncodeToString(sum[:])
}

// seed parses hexHash[from:to] as a hexadecimal integer. Bounds are clamped
// to the hash length; an empty or invalid slice yields 0.
func seed(hexHash string, from, to int) uint64 {
	to = min(to, len(hexHash))
	if from >= to {
		return 0
	}
	v, err := strconv.ParseUint(hexHash[from:to], 16, 64)
	if err != nil {
		return 0
	}
	return v
}

// pick selects a pool entry using the first 8 hex characters
func pick(pool []string, hexHash string) string {
	return pool[seed(hexHash, 0, 8)%uint64(len(pool))]
}

// unitFloat returns a value in [0, 1] from hexHash[8:16]
func unitFloat(hexHash string) float64 {
	return float64(seed(hexHash, 8, 16)) / 0xFFFFFFFF
}

// Generate returns the deterministic pseudonym for an entity of the given
// type. Types without a dedicated format yield "[REDACTED_<TYPE>]".
func Generate(label, original, hexHash string) string {
	return deterministic(ParseKind(label), label, original, hexHash)
}

func deterministic(kind Kind, label, original, hexHash string) string {
	switch kind {
	case KindPerson:
		return PersonGenerator(hexHash)
	case KindOrganization:
		return OrganizationGenerator(hexHash)
	case KindEmail:
		return EmailGenerator(hexHash)
	case KindPhoneNumber:
		return PhoneGenerator(hexHash)
	case KindSSN:
		return SSNGenerator(hexHash)
	case KindCreditCard:
		return CreditCardGenerator(hexHash)
	case KindMonetaryAmount:
		return MonetaryAmountGenerator(original, hexHash)
	case KindLocation:
		return LocationGenerator(hexHash)
	case KindDate:
		return DateGenerator(hexHash)
	case KindMatterNumber:
		return MatterNumberGenerator(hexHash)
	case KindClientMatterPair:
		return OrganizationGenerator(hexHash) + " / " + MatterNumberGenerator(hexHash[min(8, len(hexHash)):])
	case KindDealCodename:
		return DealCodenameGenerator(hexHash)
	case KindAccountNumber:
		return AccountNumberGenerator(hexHash)
	case KindIPAddress:
		return IPAddressGenerator(hexHash)
	case KindMedicalRecord:
		return MedicalRecordGenerator(hexHash)
	case KindPassportNumber:
		return PassportNumberGenerator(hexHash)
	case KindDriversLicense:
		return DriversLicenseGenerator(hexHash)
	case KindOpposingCounsel:
		return PersonGenerator(hexHash) + ", " + LawFirmGenerator(hexHash)
	case KindPrivilegeMarker:
		return PrivilegeMarkerGenerator(hexHash)
	case KindUnknown:
		return GenericGenerator(label)
	}
	return GenericGenerator(label)
}

// PersonGenerator picks a fictitious full name
func PersonGenerator(hexHash string) string {
	return pick(fakePersons, hexHash)
}

// OrganizationGenerator picks a fictitious company name
func OrganizationGenerator(hexHash string) string {
	return pick(fakeOrganizations, hexHash)
}

// EmailGenerator builds first.last@domain from a fictitious name and a reserved domain
func EmailGenerator(hexHash string) string {
	parts := strings.Fields(strings.ToLower(strings.ReplaceAll(PersonGenerator(hexHash), "'", "")))
	domain := pick(fakeEmailDomains, hexHash[min(4, len(hexHash)):])
	return fmt.Sprintf("%s.%s@%s", parts[0], parts[1], domain)
}

// PhoneGenerator generates a US-style number: (AAA) MMM-LLLL
func PhoneGenerator(hexHash string) string {
	area := seed(hexHash, 0, 3)%800 + 200
	mid := seed(hexHash, 3, 6)%900 + 100
	last := seed(hexHash, 6, 10)%9000 + 1000
	return fmt.Sprintf("(%d) %d-%d", area, mid, last)
}

// SSNGenerator generates AAA-BB-CCCC with no all-zero group
func SSNGenerator(hexHash string) string {
	a := seed(hexHash, 0, 3)%899 + 100
	b := seed(hexHash, 3, 5)%90 + 10
	c := seed(hexHash, 5, 9)%9000 + 1000
	return fmt.Sprintf("%d-%d-%d", a, b, c)
}

// CreditCardGenerator generates a 16-digit number starting with 4, grouped by four
func CreditCardGenerator(hexHash string) string {
	var b strings.Builder
	b.WriteByte('4')
	for i := 1; i < 16; i++ {
		idx := i % max(1, len(hexHash))
		b.WriteString(strconv.FormatUint(seed(hexHash, idx, idx+2)%10, 10))
	}
	card := b.String()
	return card[0:4] + "-" + card[4:8] + "-" + card[8:12] + "-" + card[12:16]
}

// MonetaryAmountGenerator scales the original amount by a factor in [0.8, 1.2]
// and keeps its currency prefix
func MonetaryAmountGenerator(original, hexHash string) string {
	value, err := strconv.ParseFloat(nonAmountChars.ReplaceAllString(original, ""), 64)
	if err != nil || value == 0 {
		return defaultMonetaryAmount
	}

	jitter := 0.8 + unitFloat(hexHash)*0.4

	prefix := strings.TrimSpace(currencyPrefix.FindString(original))
	if prefix == "" {
		prefix = "$"
	}

	return prefix + message.NewPrinter(language.English).Sprintf("%.2f", value*jitter)
}

// LocationGenerator picks a fictitious street address
func LocationGenerator(hexHash string) string {
	return pick(fakeLocations, hexHash)
}

// DateGenerator generates a YYYY-MM-DD date between 2020 and 2024
func DateGenerator(hexHash string) string {
	s := seed(hexHash, 0, 8)
	return fmt.Sprintf("%d-%02d-%02d", 2020+s%5, s%12+1, s%28+1)
}

// MatterNumberGenerator generates M-NNNN-NNN
func MatterNumberGenerator(hexHash string) string {
	prefix := seed(hexHash, 0, 4)%9000 + 1000
	suffix := seed(hexHash, 4, 8)%900 + 100
	return fmt.Sprintf("M-%d-%d", prefix, suffix)
}

// DealCodenameGenerator picks a fictitious "Project X" codename
func DealCodenameGenerator(hexHash string) string {
	return pick(fakeDealCodenames, hexHash)
}

// AccountNumberGenerator generates a 10-digit account number
func AccountNumberGenerator(hexHash string) string {
	var b strings.Builder
	for i := 0; i < 10; i++ {
		b.WriteString(strconv.FormatUint(seed(hexHash, i, i+2)%10, 10))
	}
	return b.String()
}

// IPAddressGenerator returns an address in the 192.0.2.0/24 documentation range
func IPAddressGenerator(hexHash string) string {
	return fmt.Sprintf("192.0.2.%d", seed(hexHash, 0, 4)%254+1)
}

// MedicalRecordGenerator generates MRN-NNNNNNN
func MedicalRecordGenerator(hexHash string) string {
	return fmt.Sprintf("MRN-%d", seed(hexHash, 0, 8)%9000000+1000000)
}

func documentLetter(hexHash string) string {
	return string(rune('A' + seed(hexHash, 0, 2)%26))
}

// PassportNumberGenerator generates a letter followed by 8 digits
func PassportNumberGenerator(hexHash string) string {
	return fmt.Sprintf("%s%d", documentLetter(hexHash), seed(hexHash, 2, 10)%90000000+10000000)
}

// DriversLicenseGenerator generates a letter followed by 9 digits
func DriversLicenseGenerator(hexHash string) string {
	return fmt.Sprintf("%s%d", documentLetter(hexHash), seed(hexHash, 2, 10)%900000000+100000000)
}

// LawFirmGenerator picks a fictitious law firm using hexHash[8:]
func LawFirmGenerator(hexHash string) string {
	return pick(fakeLawFirms, hexHash[min(8, len(hexHash)):])
}

// PrivilegeMarkerGenerator picks a replacement privilege legend
func PrivilegeMarkerGenerator(hexHash string) string {
	return pick(fakePrivilegeMarkers, hexHash)
}

// GenericGenerator is used for types without a dedicated format
func GenericGenerator(label string) string {
	return "[REDACTED_" + label + "]"
}
