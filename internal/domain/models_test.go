package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInvoiceStatusCanAdvanceTo(t *testing.T) {
	assert.True(t, InvoiceDraft.CanAdvanceTo(InvoiceSent))
	assert.True(t, InvoiceDraft.CanAdvanceTo(InvoicePaid))
	assert.True(t, InvoiceSent.CanAdvanceTo(InvoicePaid))

	assert.False(t, InvoiceSent.CanAdvanceTo(InvoiceDraft))
	assert.False(t, InvoicePaid.CanAdvanceTo(InvoiceSent))
	assert.False(t, InvoiceDraft.CanAdvanceTo(InvoiceDraft))
	assert.False(t, InvoiceDraft.CanAdvanceTo(InvoiceStatus("void")))
}

func TestBillingStateCanAdvanceTo(t *testing.T) {
	assert.True(t, BillingOpen.CanAdvanceTo(BillingAwaitingApproval))
	assert.True(t, BillingOpen.CanAdvanceTo(BillingClosed))
	assert.True(t, BillingReadyToBill.CanAdvanceTo(BillingInvoiced))

	assert.False(t, BillingInvoiced.CanAdvanceTo(BillingReadyToBill))
	assert.False(t, BillingClosed.CanAdvanceTo(BillingOpen))
	assert.False(t, BillingOpen.CanAdvanceTo(WorkOrderBillingState("archived")))
}

func TestInvoiceSourceTypeIsValid(t *testing.T) {
	assert.True(t, SourceTimeEntry.IsValid())
	assert.True(t, SourcePartUsage.IsValid())
	assert.True(t, SourceFlatTask.IsValid())
	assert.False(t, InvoiceSourceType("ticket").IsValid())
}
