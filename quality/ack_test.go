package quality_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/shaho-engine/quality"
)

func TestReconcile(t *testing.T) {
	// GIVEN: A scan with two findings and acknowledgements for one of them
	//        plus one id the scan no longer produces
	// WHEN: Reconciling
	// THEN: The matching issue is acknowledged and the other id is stale

	emp := clean("emp-1")
	emp.IsInsured = false
	issues := newValidator().ScanEmployee(emp, cleanHistory())
	require.Len(t, issues, 2)

	acks := []quality.Acknowledgement{
		{IssueID: "emp-1-health_uninsured_with_qualification-2020-04", AcknowledgedBy: "sato", AcknowledgedAt: scanTime},
		{IssueID: "emp-1-retire_before_hire-na", AcknowledgedBy: "sato", AcknowledgedAt: scanTime.Add(-time.Hour)},
	}

	views, stale := quality.Reconcile(issues, acks)
	require.Len(t, views, 2)
	assert.Equal(t, []string{"emp-1-retire_before_hire-na"}, stale)

	for _, v := range views {
		switch v.Type {
		case quality.IssueHealthUninsuredQualified:
			assert.True(t, v.Acknowledged)
			require.NotNil(t, v.Acknowledgement)
			assert.Equal(t, "sato", v.Acknowledgement.AcknowledgedBy)
		case quality.IssuePensionUninsuredQualified:
			assert.False(t, v.Acknowledged)
			assert.Nil(t, v.Acknowledgement)
		default:
			t.Fatalf("unexpected issue %s", v.ID)
		}
	}

	open := quality.Unacknowledged(views)
	require.Len(t, open, 1)
	assert.Equal(t, quality.IssuePensionUninsuredQualified, open[0].Type)
}

func TestReconcile_AcknowledgementSurvivesRescan(t *testing.T) {
	emp := clean("emp-1")
	emp.PensionLossDate = nil
	emp.RetireDate = d("2025-03-31")
	emp.HealthLossDate = d("2025-04-01")

	v := newValidator()
	first := v.ScanEmployee(emp, cleanHistory())
	require.Len(t, first, 1)
	ack := quality.Acknowledgement{IssueID: first[0].ID}

	// An unrelated edit does not change the id
	emp.Name = "renamed"
	views, stale := quality.Reconcile(v.ScanEmployee(emp, cleanHistory()), []quality.Acknowledgement{ack})
	assert.Empty(t, stale)
	assert.True(t, views[0].Acknowledged)

	// Fixing the data makes the acknowledgement stale
	emp.PensionLossDate = d("2025-04-01")
	views, stale = quality.Reconcile(v.ScanEmployee(emp, cleanHistory()), []quality.Acknowledgement{ack})
	assert.Empty(t, views)
	assert.Equal(t, []string{"emp-1-pension_loss_date_missing-na"}, stale)
}

func TestIssueType_Severity(t *testing.T) {
	assert.Equal(t, quality.SeverityError, quality.IssueRetireBeforeHire.Severity())
	assert.Equal(t, quality.SeverityWarning, quality.IssueHealthFutureQualification.Severity())
	assert.Equal(t, quality.SeverityWarning, quality.IssueInsuredWithoutRewardHistory.Severity())
	assert.False(t, quality.IssueType("made_up").Valid())
	assert.Len(t, quality.AllIssueTypes, 19)
}
