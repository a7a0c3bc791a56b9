package detectors

import "strings"

// Canonical entity types shared by producers, the scorer and the pseudonym generator
const (
	LabelPerson              = "PERSON"
	LabelOrganization        = "ORGANIZATION"
	LabelLocation            = "LOCATION"
	LabelDate                = "DATE"
	LabelPhoneNumber         = "PHONE_NUMBER"
	LabelEmail               = "EMAIL"
	LabelCreditCard          = "CREDIT_CARD"
	LabelSSN                 = "SSN"
	LabelMonetaryAmount      = "MONETARY_AMOUNT"
	LabelAccountNumber       = "ACCOUNT_NUMBER"
	LabelIPAddress           = "IP_ADDRESS"
	LabelMedicalRecord       = "MEDICAL_RECORD"
	LabelPassportNumber      = "PASSPORT_NUMBER"
	LabelDriversLicense      = "DRIVERS_LICENSE"
	LabelMatterNumber        = "MATTER_NUMBER"
	LabelClientMatterPair    = "CLIENT_MATTER_PAIR"
	LabelPrivilegeMarker     = "PRIVILEGE_MARKER"
	LabelDealCodename        = "DEAL_CODENAME"
	LabelOpposingCounsel     = "OPPOSING_COUNSEL"
	LabelAPIKey              = "API_KEY"
	LabelDatabaseURI         = "DATABASE_URI"
	LabelAuthToken           = "AUTH_TOKEN"
	LabelPrivateKey          = "PRIVATE_KEY"
	LabelAWSCredential       = "AWS_CREDENTIAL"
	LabelGCPCredential       = "GCP_CREDENTIAL"
	LabelAzureCredential     = "AZURE_CREDENTIAL"
	LabelFinancialInstrument = "FINANCIAL_INSTRUMENT"
	LabelTradeSecret         = "TRADE_SECRET"
	LabelLitigationStrategy  = "LITIGATION_STRATEGY"
	LabelProprietaryFormula  = "PROPRIETARY_FORMULA"
	LabelMNPI                = "MNPI"
	LabelClinicalData        = "CLINICAL_DATA"
)

// modelLabels maps NER model labels (both natural-language and token-class
// styles) onto the canonical types
var modelLabels = map[string]string{
	"person":                 LabelPerson,
	"firstname":              LabelPerson,
	"surname":                LabelPerson,
	"organization":           LabelOrganization,
	"location":               LabelLocation,
	"city":                   LabelLocation,
	"street":                 LabelLocation,
	"zipcode":                LabelLocation,
	"buildingnum":            LabelLocation,
	"date":                   LabelDate,
	"dateofbirth":            LabelDate,
	"phone number":           LabelPhoneNumber,
	"telephonenum":           LabelPhoneNumber,
	"email":                  LabelEmail,
	"credit card":            LabelCreditCard,
	"creditcardnumber":       LabelCreditCard,
	"social security number": LabelSSN,
	"socialnum":              LabelSSN,
	"monetary amount":        LabelMonetaryAmount,
	"account number":         LabelAccountNumber,
	"accountnum":             LabelAccountNumber,
	"ip address":             LabelIPAddress,
	"medical record":         LabelMedicalRecord,
	"passport number":        LabelPassportNumber,
	"driver license":         LabelDriversLicense,
	"driverlicensenum":       LabelDriversLicense,
}

// NormalizeLabel maps a producer-specific label onto a canonical type.
// Unknown labels are upper-cased with spaces replaced by underscores.
func NormalizeLabel(label string) string {
	if canonical, ok := modelLabels[strings.ToLower(strings.TrimSpace(label))]; ok {
		return canonical
	}
	return strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(label), " ", "_"))
}
