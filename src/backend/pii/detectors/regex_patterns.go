package detectors

// PIIPatterns defines regex patterns for structured personal data
var PIIPatterns = []PatternSpec{
	{Label: LabelEmail, Expr: `\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`, Confidence: 0.95},
	{Label: LabelPhoneNumber, Expr: `(?:\+?1[-.\s]?)?\(?\b[2-9][0-9]{2}\)?[-.\s]?[0-9]{3}[-.\s][0-9]{4}\b`, Confidence: 0.75},
	{Label: LabelSSN, Expr: `\b\d{3}-\d{2}-\d{4}\b`, Confidence: 0.85},
	{Label: LabelCreditCard, Expr: `\b(?:\d{4}[\s-]?){3}\d{4}\b`, Confidence: 0.9},
	{Label: LabelIPAddress, Expr: `\b(?:(?:25[0-5]|2[0-4]\d|1?\d?\d)\.){3}(?:25[0-5]|2[0-4]\d|1?\d?\d)\b`, Confidence: 0.8},
	{Label: LabelMonetaryAmount, Expr: `(?:[$€£]\s?\d{1,3}(?:,\d{3})*(?:\.\d{2})?(?:\s?(?:million|billion|[MBK])\b)?|\b\d{1,3}(?:,\d{3})*(?:\.\d{2})?\s?(?:USD|EUR|GBP|dollars)\b)`, Confidence: 0.7},
	{Label: LabelDate, Expr: `\b(?:\d{4}-\d{2}-\d{2}|(?:0?[1-9]|1[0-2])[-/](?:0?[1-9]|[12]\d|3[01])[-/](?:19|20)\d{2}|(?:January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{1,2},\s+\d{4})\b`, Confidence: 0.6},
	{Label: LabelMedicalRecord, Expr: `(?i)\b(?:MRN|medical\s+record(?:\s+(?:no\.?|number))?)[\s#:]*\d{6,10}\b`, Confidence: 0.85},
	{Label: LabelAccountNumber, Expr: `(?i)\b(?:account|acct)[\s#:]*(?:no\.?|number)?[\s#:]*\d{8,12}\b`, Confidence: 0.8},
}

// LegalPatterns detects matter numbers, privilege markers, client-matter pairs,
// deal codenames and opposing counsel references
var LegalPatterns = []PatternSpec{
	// Matter #2024-0847, Case No. 23-1234
	{Label: LabelMatterNumber, Expr: `(?i)\b(?:matter|case|docket|file)\s*(?:#|no\.?|number:?)\s*\d{2,4}[-./]\d{3,6}(?:[-./]\d{1,4})?`, Confidence: 0.8},
	// Federal court format: 23-cv-01234
	{Label: LabelMatterNumber, Expr: `(?i)\b\d{1,2}-(?:cv|cr|mc|mj|ap|bk|po)-\d{4,6}\b`, Confidence: 0.8},
	// Case citation: 2024 NY 123456
	{Label: LabelMatterNumber, Expr: `\b20\d{2}\s+[A-Z]{2}\s+\d{4,8}\b`, Confidence: 0.8},

	{Label: LabelPrivilegeMarker, Expr: `(?i)\battorney[\s-]client\s+privilege\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bwork\s+product\s+(?:doctrine|protection|privilege)\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bprivileged\s+and\s+confidential\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\battorney\s+work\s+product\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bprotected\s+communication\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\blegal\s+professional\s+privilege\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\blitigation\s+privilege\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bcommon\s+interest\s+privilege\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bjoint\s+defense\s+privilege\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bwithout\s+prejudice\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bunder\s+seal\b`, Confidence: 0.95},
	{Label: LabelPrivilegeMarker, Expr: `(?i)\bconfidential\s+(?:treatment|information)\b`, Confidence: 0.95},

	{Label: LabelClientMatterPair, Expr: `(?i)(?:(?:client|matter|re|regarding|in\s+the\s+matter\s+of)[:\s]+)[A-Z][a-zA-Z\s&.,]+?\s*(?:matter|case|docket|file)?\s*(?:#|no\.?|number)?\s*\d{2,4}[-./]\d{3,6}`, Confidence: 0.9},

	{
		Label:      LabelDealCodename,
		Expr:       `\b(?:[Pp]roject|[Oo]peration|[Dd]eal|[Tt]ransaction|[Ii]nitiative)\s+[A-Z][a-z]+(?:\s+[A-Z][a-z]+)?\b`,
		Confidence: 0.7,
		Exclude:    []string{"Project Manager", "Project Management", "Project Plan", "Operation System", "Operation Manual"},
	},
	{Label: LabelDealCodename, Expr: `(?i)\b(?:code[\s-]?named?|codenamed?)[:\s]+["']?[A-Z][a-zA-Z\s]+?["']?\b`, Confidence: 0.7},

	{Label: LabelOpposingCounsel, Expr: `(?i)\b(?:opposing\s+counsel|adverse\s+party|defendant'?s?\s+counsel|plaintiff'?s?\s+counsel|respondent'?s?\s+counsel|petitioner'?s?\s+counsel)\s*[:\s]*[A-Z][a-zA-Z\s&.,]+?(?:\.|,|\n|$)`, Confidence: 0.75},
	{Label: LabelOpposingCounsel, Expr: `(?i)\bcounsel\s+for\s+(?:the\s+)?(?:defendant|plaintiff|respondent|petitioner)\s*[:\s]*[A-Z][a-zA-Z\s&.,]+?(?:\.|,|\n|$)`, Confidence: 0.75},
}

// SecretPatterns detects API keys, cloud credentials, database URIs, auth
// tokens and private keys
var SecretPatterns = []PatternSpec{
	{Label: LabelAPIKey, Expr: `sk-ant-[a-zA-Z0-9_-]{40,}`, Confidence: 0.95},
	{Label: LabelAPIKey, Expr: `sk-[a-zA-Z0-9]{20,}`, Confidence: 0.95},
	{Label: LabelAPIKey, Expr: `sk_live_[a-zA-Z0-9]{24,}`, Confidence: 0.95},
	{Label: LabelAPIKey, Expr: `sk_test_[a-zA-Z0-9]{24,}`, Confidence: 0.90},
	{Label: LabelAPIKey, Expr: `ghp_[a-zA-Z0-9]{36}`, Confidence: 0.95},
	{Label: LabelAPIKey, Expr: `xoxb-[0-9]+-[a-zA-Z0-9]+`, Confidence: 0.90},
	{Label: LabelAPIKey, Expr: `SG\.[a-zA-Z0-9_-]{22}\.[a-zA-Z0-9_-]{43}`, Confidence: 0.95},
	{Label: LabelAWSCredential, Expr: `AKIA[0-9A-Z]{16}`, Confidence: 0.95},
	{Label: LabelAWSCredential, Expr: `ASIA[0-9A-Z]{16}`, Confidence: 0.90},
	{Label: LabelGCPCredential, Expr: `AIza[0-9A-Za-z_-]{35}`, Confidence: 0.90},
	{Label: LabelDatabaseURI, Expr: `(?:postgres(?:ql)?|mysql|mongodb|redis)://\S+`, Confidence: 0.95},
	{Label: LabelAuthToken, Expr: `eyJ[a-zA-Z0-9_-]+\.eyJ[a-zA-Z0-9_-]+\.[a-zA-Z0-9_-]+`, Confidence: 0.90},
	{Label: LabelPrivateKey, Expr: `-----BEGIN (?:RSA |EC |DSA )?PRIVATE KEY-----`, Confidence: 0.99},
	{Label: LabelAzureCredential, Expr: `DefaultEndpointsProtocol=https;AccountName=\S+`, Confidence: 0.90},
}
