package store

import (
	"path/filepath"
)

// Default file locations relative to a workspace.
var (
	DefaultLocatorsPath = filepath.Join("locators", "locators.xlsx")
	DefaultTestDataPath = filepath.Join("test-data", "testData.xlsx")
)

// SampleLocatorRows are the rows written by WriteSampleWorkbooks.
var SampleLocatorRows = [][]string{
	LocatorHeader,
	{"LoginPage", "username", "#user-name", "css", ""},
	{"LoginPage", "password", "#password", "css", ""},
	{"LoginPage", "loginButton", "#login-button", "css", ""},
	{"LoginPage", "errorMessage", `[data-test="error"]`, "css", ""},
	{"ProductsPage", "productTitle", ".title", "css", ""},
	{"ProductsPage", "appLogo", ".app_logo", "css", ""},
	{"ProductsPage", "logout", "#logout_sidebar_link", "css", ""},
	{"ProductsPage", "menuButton", "#react-burger-menu-btn", "css", ""},
	{"PaymentPage", "cardNumber", `input[name="cardNumber"]`, "css", "#paymentIframe"},
}

// SampleTestDataRows are the rows written by WriteSampleWorkbooks.
var SampleTestDataRows = [][]string{
	TestDataHeader,
	{"TC_001", "Login with valid credentials", "standard_user", "secret_sauce", "Login Successful"},
	{"TC_002", "Login with invalid username", "invalid_user", "secret_sauce", "Error Message Displayed"},
	{"TC_003", "Login with invalid password", "standard_user", "invalid_pass", "Error Message Displayed"},
}

// WriteSampleWorkbooks writes the sample locator and test data workbooks
// under dir and returns their paths.
func WriteSampleWorkbooks(dir string) (locatorsPath, testDataPath string, err error) {
	locatorsPath = filepath.Join(dir, DefaultLocatorsPath)
	if err = WriteRows(locatorsPath, "Locators", SampleLocatorRows); err != nil {
		return "", "", err
	}
	testDataPath = filepath.Join(dir, DefaultTestDataPath)
	if err = WriteRows(testDataPath, "TestData", SampleTestDataRows); err != nil {
		return "", "", err
	}
	return locatorsPath, testDataPath, nil
}
