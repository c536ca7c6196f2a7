package constants

// Document store collections
const (
	CollectionCustomerLeads = "customerleads"
	CollectionEmployees     = "employees"
)

// Stored attribute names referenced outside the ERP field table
const (
	FieldID                   = "id"
	FieldEntityID             = "entityid"
	FieldEntityNumber         = "entitynumber"
	FieldFirstName            = "firstname"
	FieldLastName             = "lastname"
	FieldEmail                = "email"
	FieldMobilePhone          = "mobilephone"
	FieldStage                = "stage"
	FieldToken                = "token"
	FieldRefreshToken         = "refresh_token"
	FieldSalesRepID           = "salesrep_id"
	FieldParentID             = "parent_id"
	FieldReferredBy           = "referred_by"
	FieldIsFinalClient        = "is_final_client"
	FieldTimeZone             = "time_zone"
	FieldAddresses            = "addresses"
	FieldHrc                  = "hrc"
	FieldSearchKey            = "search_key"
	FieldEmpStatus            = "emp_status"
	FieldPassword             = "password"
	FieldRecoverPasswordToken = "recover_password_token"
	FieldIsLoggedIn           = "is_logged_in"
	FieldMicrosoftGraphID     = "microsoft_graph_id"
	FieldUpdatedEmail         = "updated_email"
	FieldID8x8                = "id_8x8"
)

// Email templates understood by the notification service
const (
	TemplateCreatePassword  = "create-password"
	TemplateRecoverPassword = "recover-password"
)
