package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRequiredDocumentTypes_Loan(t *testing.T) {
	reguler := RequiredDocumentTypes(KindLoan, "Reguler")
	assert.ElementsMatch(t, []DocumentType{
		DocumentIdentityCard, DocumentFamilyCard, DocumentBankBook, DocumentLandCertificate,
	}, reguler)

	sertifikasi := RequiredDocumentTypes(KindLoan, "Sertifikasi")
	assert.ElementsMatch(t, []DocumentType{
		DocumentIdentityCard, DocumentFamilyCard, DocumentBankBook, DocumentCertification,
	}, sertifikasi)

	// Unknown loan categories still require the universal documents.
	other := RequiredDocumentTypes(KindLoan, "Musiman")
	assert.ElementsMatch(t, []DocumentType{
		DocumentIdentityCard, DocumentFamilyCard, DocumentBankBook,
	}, other)
}

func TestRequiredDocumentTypes_Saving(t *testing.T) {
	assert.Empty(t, RequiredDocumentTypes(KindSaving, "Sukarela"))
}

func TestOptionalDocumentType(t *testing.T) {
	doc, ok := OptionalDocumentType(KindLoan, "Reguler")
	assert.True(t, ok)
	assert.Equal(t, DocumentSalarySlip, doc)

	_, ok = OptionalDocumentType(KindSaving, "Pokok")
	assert.False(t, ok)
}
