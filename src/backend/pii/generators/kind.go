package generators

import "github.com/hannes/irongate/src/backend/pii/detectors"

// Kind enumerates the entity types that have a dedicated pseudonym format
type Kind int

const (
	KindUnknown Kind = iota
	KindPerson
	KindOrganization
	KindEmail
	KindPhoneNumber
	KindSSN
	KindCreditCard
	KindMonetaryAmount
	KindLocation
	KindDate
	KindMatterNumber
	KindClientMatterPair
	KindDealCodename
	KindAccountNumber
	KindIPAddress
	KindMedicalRecord
	KindPassportNumber
	KindDriversLicense
	KindOpposingCounsel
	KindPrivilegeMarker
)

var kindLabels = map[Kind]string{
	KindPerson:           detectors.LabelPerson,
	KindOrganization:     detectors.LabelOrganization,
	KindEmail:            detectors.LabelEmail,
	KindPhoneNumber:      detectors.LabelPhoneNumber,
	KindSSN:              detectors.LabelSSN,
	KindCreditCard:       detectors.LabelCreditCard,
	KindMonetaryAmount:   detectors.LabelMonetaryAmount,
	KindLocation:         detectors.LabelLocation,
	KindDate:             detectors.LabelDate,
	KindMatterNumber:     detectors.LabelMatterNumber,
	KindClientMatterPair: detectors.LabelClientMatterPair,
	KindDealCodename:     detectors.LabelDealCodename,
	KindAccountNumber:    detectors.LabelAccountNumber,
	KindIPAddress:        detectors.LabelIPAddress,
	KindMedicalRecord:    detectors.LabelMedicalRecord,
	KindPassportNumber:   detectors.LabelPassportNumber,
	KindDriversLicense:   detectors.LabelDriversLicense,
	KindOpposingCounsel:  detectors.LabelOpposingCounsel,
	KindPrivilegeMarker:  detectors.LabelPrivilegeMarker,
}

var labelKinds = func() map[string]Kind {
	m := make(map[string]Kind, len(kindLabels))
	for k, label := range kindLabels {
		m[label] = k
	}
	return m
}()

// ParseKind returns the Kind for a canonical entity type, or KindUnknown
func ParseKind(label string) Kind {
	return labelKinds[label]
}

func (k Kind) String() string {
	if label, ok := kindLabels[k]; ok {
		return label
	}
	return "UNKNOWN"
}
