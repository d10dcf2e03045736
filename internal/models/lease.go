package models

import "time"

// QuestionSetVersion identifies the question table below. Bump it whenever a
// question is reworded, added, removed or remapped so stored leases can be
// traced back to the prompts that produced them.
const QuestionSetVersion = "2023-03.1"

// Lease is the structured result of one ingested lease document. Every text
// field holds the model's answer to exactly one entry of Fields, or "" when
// that question failed.
type Lease struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"createdAt"`
	QuestionSetVersion string    `json:"questionSetVersion"`
	SourceFilename     string    `json:"sourceFilename"`

	PropertyAddress                      string `json:"propertyAddress"`
	PropertyDescription                  string `json:"propertyDescription"`
	TenantName                           string `json:"tenantName"`
	TenantContactInfo                    string `json:"tenantContactInfo"`
	LandlordName                         string `json:"landlordName"`
	LandlordContactInfo                  string `json:"landlordContactInfo"`
	LeaseStartDate                       string `json:"leaseStartDate"`
	LeaseEndDate                         string `json:"leaseEndDate"`
	RenewalOptions                       string `json:"renewalOptions"`
	RentAmount                           string `json:"rentAmount"`
	RentPaymentSchedule                  string `json:"rentPaymentSchedule"`
	RentEscalationClauses                string `json:"rentEscalationClauses"`
	SecurityDepositAmount                string `json:"securityDepositAmount"`
	SecurityDepositRequirements          string `json:"securityDepositRequirements"`
	PermittedUses                        string `json:"permittedUses"`
	ProhibitedUses                       string `json:"prohibitedUses"`
	RestrictionsAlterations              string `json:"restrictionsAlterations"`
	MaintainingPremises                  string `json:"maintainingPremises"`
	TenantInsuranceRequirements          string `json:"tenantInsuranceRequirements"`
	LandlordInsuranceRequirements        string `json:"landlordInsuranceRequirements"`
	InsuranceAmounts                     string `json:"insuranceAmounts"`
	IndemnificationProvisions            string `json:"indemnificationProvisions"`
	TenantDefault                        string `json:"tenantDefault"`
	LandlordDefault                      string `json:"landlordDefault"`
	TerminationProvisions                string `json:"terminationProvisions"`
	AssignmentSublettingRestrictions     string `json:"assignmentSublettingRestrictions"`
	LandlordApprovalAssignmentSubletting string `json:"landlordApprovalAssignmentSubletting"`
	MaintenanceResponsibilities          string `json:"maintenanceResponsibilities"`
	CamCharges                           string `json:"camCharges"`
	UtilitiesRequirements                string `json:"utilitiesRequirements"`
	DisputeResolution                    string `json:"disputeResolution"`
	GoverningLawJurisdiction             string `json:"governingLawJurisdiction"`
	NoticesRequirements                  string `json:"noticesRequirements"`
	ForceMajeureProvisions               string `json:"forceMajeureProvisions"`
	ConfidentialityProvisions            string `json:"confidentialityProvisions"`
}

// Field binds one extracted lease attribute to its question and its column.
type Field struct {
	Name     string // JSON name, also the key of extraction results
	Column   string // SQL column
	Label    string // human-readable heading
	Question string
	Value    func(*Lease) *string
}

// Fields is the ordered question table. Order is the order questions are
// asked in; each Name appears once and maps onto exactly one Lease field.
var Fields = []Field{
	{"propertyAddress", "property_address", "Property Address",
		"What is the address of the property on this lease agreement?",
		func(l *Lease) *string { return &l.PropertyAddress }},
	{"propertyDescription", "property_description", "Property Description",
		"Give me a description of the premises on this lease agreement.",
		func(l *Lease) *string { return &l.PropertyDescription }},
	{"tenantName", "tenant_name", "Tenant Name",
		"What is the name, and only the name, of the tenant named in the Schedule?",
		func(l *Lease) *string { return &l.TenantName }},
	{"tenantContactInfo", "tenant_contact_info", "Tenant Contact Info",
		"What is the contact information of the tenant? This can be an email address, phone number, or mailing address.",
		func(l *Lease) *string { return &l.TenantContactInfo }},
	{"landlordName", "landlord_name", "Landlord Name",
		"What is the name, and only the name, of the landlord named in the Schedule?",
		func(l *Lease) *string { return &l.LandlordName }},
	{"landlordContactInfo", "landlord_contact_info", "Landlord Contact Info",
		"What is the contact information of the landlord? This can be an email address, phone number, or mailing address.",
		func(l *Lease) *string { return &l.LandlordContactInfo }},
	{"leaseStartDate", "lease_start_date", "Lease Start Date",
		"What is the start date of this lease?",
		func(l *Lease) *string { return &l.LeaseStartDate }},
	{"leaseEndDate", "lease_end_date", "Lease End Date",
		"What is the end date of this lease?",
		func(l *Lease) *string { return &l.LeaseEndDate }},
	{"renewalOptions", "renewal_options", "Renewal Options",
		"What are the renewal options and associated terms on this lease agreement?",
		func(l *Lease) *string { return &l.RenewalOptions }},
	{"rentAmount", "rent_amount", "Rent Amount",
		"What is the rent amount on this lease agreement?",
		func(l *Lease) *string { return &l.RentAmount }},
	{"rentPaymentSchedule", "rent_payment_schedule", "Rent Payment Schedule",
		"What is the rent payment schedule on this lease agreement?",
		func(l *Lease) *string { return &l.RentPaymentSchedule }},
	{"rentEscalationClauses", "rent_escalation_clauses", "Rent Escalation Clauses",
		"What are the rent escalation clauses and associated calculations on this lease agreement?",
		func(l *Lease) *string { return &l.RentEscalationClauses }},
	{"securityDepositAmount", "security_deposit_amount", "Security Deposit Amount",
		"What is the security deposit amount on this lease agreement?",
		func(l *Lease) *string { return &l.SecurityDepositAmount }},
	{"securityDepositRequirements", "security_deposit_requirements", "Security Deposit Requirements",
		"What are the security deposit requirements on this lease agreement?",
		func(l *Lease) *string { return &l.SecurityDepositRequirements }},
	{"permittedUses", "permitted_uses", "Permitted Uses",
		"What are the permitted uses of the premises on this lease agreement?",
		func(l *Lease) *string { return &l.PermittedUses }},
	{"prohibitedUses", "prohibited_uses", "Prohibited Uses",
		"What are the prohibited uses of the premises on this lease agreement?",
		func(l *Lease) *string { return &l.ProhibitedUses }},
	{"restrictionsAlterations", "restrictions_alterations", "Restrictions on Alterations",
		"What are the restrictions on alterations, improvements, and additions on this lease agreement?",
		func(l *Lease) *string { return &l.RestrictionsAlterations }},
	{"maintainingPremises", "maintaining_premises", "Maintaining the Premises",
		"What are the requirements for maintaining the premises on this lease agreement?",
		func(l *Lease) *string { return &l.MaintainingPremises }},
	{"tenantInsuranceRequirements", "tenant_insurance_requirements", "Tenant Insurance Requirements",
		"What are the insurance requirements for the tenant on this lease agreement?",
		func(l *Lease) *string { return &l.TenantInsuranceRequirements }},
	{"landlordInsuranceRequirements", "landlord_insurance_requirements", "Landlord Insurance Requirements",
		"What are the insurance requirements for the landlord on this lease agreement?",
		func(l *Lease) *string { return &l.LandlordInsuranceRequirements }},
	{"insuranceAmounts", "insurance_amounts", "Insurance Amounts",
		"What are the amounts of insurance required on this lease agreement?",
		func(l *Lease) *string { return &l.InsuranceAmounts }},
	{"indemnificationProvisions", "indemnification_provisions", "Indemnification",
		"What are the provisions for indemnification in this lease?",
		func(l *Lease) *string { return &l.IndemnificationProvisions }},
	{"tenantDefault", "tenant_default", "Tenant Default",
		"What are the tenant default events and associated remedies in this lease?",
		func(l *Lease) *string { return &l.TenantDefault }},
	{"landlordDefault", "landlord_default", "Landlord Default",
		"What are the landlord default events and associated remedies in this lease?",
		func(l *Lease) *string { return &l.LandlordDefault }},
	{"terminationProvisions", "termination_provisions", "Termination Provisions",
		"What are the termination provisions and associated notice requirements in this lease?",
		func(l *Lease) *string { return &l.TerminationProvisions }},
	{"assignmentSublettingRestrictions", "assignment_subletting_restrictions", "Assignment and Subletting Restrictions",
		"What are the restrictions on assignment and subletting in this lease?",
		func(l *Lease) *string { return &l.AssignmentSublettingRestrictions }},
	{"landlordApprovalAssignmentSubletting", "landlord_approval_assignment_subletting", "Landlord Approval of Assignment",
		"What are the requirements for landlord approval of assignment or subletting outlined in this lease?",
		func(l *Lease) *string { return &l.LandlordApprovalAssignmentSubletting }},
	{"maintenanceResponsibilities", "maintenance_responsibilities", "Maintenance Responsibilities",
		"What are the responsibilities for maintaining common areas and building systems outlined in this lease?",
		func(l *Lease) *string { return &l.MaintenanceResponsibilities }},
	{"camCharges", "cam_charges", "CAM Charges",
		"What are the CAM charges and associated requirements outlined in this lease?",
		func(l *Lease) *string { return &l.CamCharges }},
	{"utilitiesRequirements", "utilities_requirements", "Utilities",
		"What are the utilities and associated requirements or limitations outlined in this lease?",
		func(l *Lease) *string { return &l.UtilitiesRequirements }},
	{"disputeResolution", "dispute_resolution", "Dispute Resolution",
		"What are the dispute resolution mechanisms outlined in this lease?",
		func(l *Lease) *string { return &l.DisputeResolution }},
	{"governingLawJurisdiction", "governing_law_jurisdiction", "Governing Law and Jurisdiction",
		"What is the governing law and jurisdiction for this lease agreement?",
		func(l *Lease) *string { return &l.GoverningLawJurisdiction }},
	{"noticesRequirements", "notices_requirements", "Notices",
		"What are the notices and associated requirements outlined in this lease agreement?",
		func(l *Lease) *string { return &l.NoticesRequirements }},
	{"forceMajeureProvisions", "force_majeure_provisions", "Force Majeure",
		"What are the force majeure provisions outlined in this lease agreement?",
		func(l *Lease) *string { return &l.ForceMajeureProvisions }},
	{"confidentialityProvisions", "confidentiality_provisions", "Confidentiality",
		"What are the confidentiality and non-disclosure provisions outlined in this lease agreement?",
		func(l *Lease) *string { return &l.ConfidentialityProvisions }},
}

// TableColumns are the fields shown on the read-only leases page.
var TableColumns = []string{
	"propertyAddress",
	"propertyDescription",
	"tenantName",
	"tenantContactInfo",
	"landlordName",
	"landlordContactInfo",
}

// FieldByName looks up an entry of Fields.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Get returns the value of the named field.
func (l *Lease) Get(name string) string {
	if f, ok := FieldByName(name); ok {
		return *f.Value(l)
	}
	return ""
}
