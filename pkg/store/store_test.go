package store

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/webflow-runner/pkg/core"
	"github.com/devicelab-dev/webflow-runner/pkg/locator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadRows_Missing(t *testing.T) {
	_, err := ReadRows(filepath.Join(t.TempDir(), "nope.xlsx"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrStoreUnavailable))
}

func TestReadRows_Unsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locators.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := ReadRows(path)
	assert.True(t, errors.Is(err, core.ErrStoreUnavailable))
}

func TestWriteAndReadRows(t *testing.T) {
	rows := [][]string{{"a", "b"}, {"1", "2"}}
	for _, name := range []string{"t.xlsx", "t.csv"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			require.NoError(t, WriteRows(path, "Data", rows))
			got, err := ReadRows(path)
			require.NoError(t, err)
			assert.Equal(t, rows, got)
		})
	}
	assert.Error(t, WriteRows(filepath.Join(t.TempDir(), "t.ods"), "", rows))
}

func TestRegistryFromRows_FourColumns(t *testing.T) {
	reg := RegistryFromRows([][]string{
		{"Screen", "ElementName", "Locator", "Type"},
		{"LoginPage", "username", "#user-name", "css"},
		{"LoginPage", "password", "#password"},
	})

	user := reg["LoginPage"]["username"]
	assert.False(t, user.IsRecord())
	assert.Equal(t, "css", user.Type)

	d, err := reg["LoginPage"]["password"].Normalize("LoginPage", "password")
	require.NoError(t, err)
	assert.Equal(t, locator.Top(), d.Scope)
	assert.Equal(t, locator.SelectorCSS, d.Type)
}

func TestRegistryFromRows_FiveColumns(t *testing.T) {
	reg := RegistryFromRows([][]string{
		LocatorHeader,
		{"LoginPage", "username", "#user-name", "css"},
		{"PaymentPage", "cardNumber", `input[name="cardNumber"]`, "css", "#paymentIframe"},
	})

	user := reg["LoginPage"]["username"]
	assert.True(t, user.IsRecord())
	d, err := user.Normalize("LoginPage", "username")
	require.NoError(t, err)
	assert.Equal(t, locator.Top(), d.Scope)

	d, err = reg["PaymentPage"]["cardNumber"].Normalize("PaymentPage", "cardNumber")
	require.NoError(t, err)
	assert.Equal(t, locator.Iframe("#paymentIframe"), d.Scope)
}

func TestRegistryFromRows_SkipsAndOverrides(t *testing.T) {
	reg := RegistryFromRows([][]string{
		LocatorHeader,
		{},
		{"LoginPage", "", "#x", "css"},
		{"LoginPage", "username", "#old", "css"},
		{"LoginPage", "username", "#new", "css"},
	})
	require.Len(t, reg["LoginPage"], 1)
	assert.Equal(t, "#new", reg["LoginPage"]["username"].Locator)

	assert.Empty(t, RegistryFromRows(nil))
}

func TestDescriptorStore_XLSX(t *testing.T) {
	dir := t.TempDir()
	locPath, _, err := WriteSampleWorkbooks(dir)
	require.NoError(t, err)

	r := locator.NewResolver(NewDescriptorStore(locPath))

	d, err := r.Resolve("LoginPage", "username")
	require.NoError(t, err)
	assert.Equal(t, "#user-name", d.Selector)
	assert.Equal(t, locator.Top(), d.Scope)

	d, err = r.Resolve("PaymentPage", "cardNumber")
	require.NoError(t, err)
	assert.Equal(t, `input[name="cardNumber"]`, d.Selector)
	assert.Equal(t, locator.Iframe("#paymentIframe"), d.Scope)
}

func TestDescriptorStore_CacheSurvivesFileChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locators.csv")
	require.NoError(t, WriteRows(path, "", [][]string{LocatorHeader, {"LoginPage", "username", "#user-name", "css", ""}}))

	r := locator.NewResolver(NewDescriptorStore(path))
	_, err := r.Resolve("LoginPage", "username")
	require.NoError(t, err)

	require.NoError(t, os.Remove(path))
	d, err := r.Resolve("LoginPage", "username")
	require.NoError(t, err)
	assert.Equal(t, "#user-name", d.Selector)
}

func TestDescriptorStore_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locators.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
LoginPage:
  username: "#user-name"
PaymentPage:
  cardNumber:
    locator: input[name="cardNumber"]
    iframe: "#paymentIframe"
`), 0o644))

	reg, err := NewDescriptorStore(path).Load()
	require.NoError(t, err)
	assert.False(t, reg["LoginPage"]["username"].IsRecord())
	assert.Equal(t, "#paymentIframe", reg["PaymentPage"]["cardNumber"].Iframe)
}

func TestDescriptorStore_Missing(t *testing.T) {
	for _, name := range []string{"locators.xlsx", "locators.yaml"} {
		_, err := NewDescriptorStore(filepath.Join(t.TempDir(), name)).Load()
		assert.True(t, errors.Is(err, core.ErrStoreUnavailable), name)
	}
}

func TestProvider_Find(t *testing.T) {
	_, dataPath, err := WriteSampleWorkbooks(t.TempDir())
	require.NoError(t, err)
	p := NewProvider(dataPath)

	rec, ok, err := p.Find("invalid username")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Login with invalid username", rec.Scenario)
	assert.Equal(t, "invalid_user", rec.Username)

	rec, ok, err = p.Find("INVALID USERNAME")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "TC_002", rec.TestCaseID)

	_, ok, err = p.Find("nonexistent-scenario")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_FirstMatchWins(t *testing.T) {
	p := NewStaticProvider(RecordsFromRows(SampleTestDataRows))
	rec, ok, err := p.Find("login with")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "TC_001", rec.TestCaseID)
}

func TestProvider_Get(t *testing.T) {
	p := NewStaticProvider(RecordsFromRows(SampleTestDataRows))
	rec, ok, err := p.Get("tc_003")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "invalid_pass", rec.Password)

	_, ok, _ = p.Get("TC_999")
	assert.False(t, ok)
}

func TestProvider_Missing(t *testing.T) {
	p := NewProvider(filepath.Join(t.TempDir(), "testData.xlsx"))
	_, _, err := p.Find("anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrDataUnavailable))
	assert.True(t, errors.Is(err, core.ErrStoreUnavailable))
}

func TestLoadTestData_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
- testCaseId: TC_010
  scenario: Checkout
  username: u
  password: p
  expectedResult: ok
`), 0o644))
	records, err := LoadTestData(path)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "TC_010", records[0].Vars()["TEST_CASE_ID"])
}

func TestRecordsFromRows_SkipsBlank(t *testing.T) {
	records := RecordsFromRows([][]string{TestDataHeader, {}, {"TC_1", "S"}})
	require.Len(t, records, 1)
	assert.Equal(t, "S", records[0].Scenario)
	assert.Empty(t, records[0].Username)
}
