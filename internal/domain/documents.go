package domain

// DocumentType identifies a document a member can register for an application.
type DocumentType string

const (
	DocumentIdentityCard    DocumentType = "identity-card"          // KTP
	DocumentFamilyCard      DocumentType = "family-card"            // kartu keluarga
	DocumentBankBook        DocumentType = "bank-book"              // buku tabungan
	DocumentLandCertificate DocumentType = "land-certificate"       // sertifikat tanah
	DocumentCertification   DocumentType = "certification-document" // dokumen sertifikasi
	DocumentSalarySlip      DocumentType = "salary-slip"
	DocumentBusinessPlan    DocumentType = "business-plan"
)

// universalLoanDocuments are required for every loan category.
var universalLoanDocuments = []DocumentType{
	DocumentIdentityCard,
	DocumentFamilyCard,
	DocumentBankBook,
}

// categoryLoanDocuments adds the blocking category-specific requirement.
var categoryLoanDocuments = map[string][]DocumentType{
	"Reguler":     {DocumentLandCertificate},
	"Sertifikasi": {DocumentCertification},
}

// optionalLoanDocuments are accepted but never block approval.
var optionalLoanDocuments = map[string]DocumentType{
	"Reguler":     DocumentSalarySlip,
	"Sertifikasi": DocumentBusinessPlan,
}

// RequiredDocumentTypes returns the blocking document set for a kind/category.
// Savings applications carry no document requirements.
func RequiredDocumentTypes(kind TransactionKind, category string) []DocumentType {
	if kind != KindLoan {
		return nil
	}
	required := make([]DocumentType, 0, len(universalLoanDocuments)+1)
	required = append(required, universalLoanDocuments...)
	required = append(required, categoryLoanDocuments[category]...)
	return required
}

// OptionalDocumentType returns the non-blocking extra document for a loan
// category, if any.
func OptionalDocumentType(kind TransactionKind, category string) (DocumentType, bool) {
	if kind != KindLoan {
		return "", false
	}
	t, ok := optionalLoanDocuments[category]
	return t, ok
}
