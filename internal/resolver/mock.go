package resolver

import (
	"fmt"
	"strings"

	"github.com/yourorg/notification-gateway/internal/domain"
)

var mockFirstNames = []string{
	"Amaka", "Chidi", "Fatima", "Ibrahim", "Kemi",
	"Lanre", "Mercy", "Nnamdi", "Ola", "Peace",
	"Raheem", "Sade", "Tobi", "Uche", "Wale",
}

var mockLastNames = []string{
	"Adebayo", "Adekunle", "Afolabi", "Agbo", "Ajayi",
	"Akindele", "Bello", "Dike", "Eze", "Fasanya",
	"Hassan", "Ihejirika", "Jibrin", "Lawal", "Nwachukwu",
}

var mockFixtures = []domain.CustomerProfile{
	{CustomerID: 1001, AccountID: 100001, FirstName: "Adaeze", LastName: "Okafor", Email: "adaeze.okafor@email.com", Phone: "+2348031001001"},
	{CustomerID: 1002, AccountID: 100002, FirstName: "Emeka", LastName: "Nwosu", Email: "emeka.nwosu@email.com", Phone: "+2348031002002"},
	{CustomerID: 1003, AccountID: 100003, FirstName: "Ngozi", LastName: "Eze", Email: "ngozi.eze@email.com", Phone: "+2348031003003"},
	{CustomerID: 1004, AccountID: 100004, FirstName: "Tunde", LastName: "Adeyemi", Email: "tunde.adeyemi@email.com", Phone: "+2348031004004"},
	{CustomerID: 1005, AccountID: 100005, FirstName: "Chisom", LastName: "Obi", Email: "chisom.obi@email.com", Phone: "+2348031005005"},
}

// MockResolver generates deterministic fixtures for local development and
// tests, so runs are predictable without a live customer service.
type MockResolver struct{}

func NewMockResolver() *MockResolver { return &MockResolver{} }

func (m *MockResolver) Resolve(accountID int64) (domain.CustomerProfile, bool) {
	for _, fixture := range mockFixtures {
		if fixture.AccountID == accountID {
			return fixture, true
		}
	}

	customerID := accountID + 900_000
	suffix := accountID % 10_000
	firstName := mockFirstNames[mod(accountID, int64(len(mockFirstNames)))]
	lastName := mockLastNames[mod(accountID/10, int64(len(mockLastNames)))]
	email := strings.ToLower(fmt.Sprintf("%s.%s%d@abbank-demo.com", firstName, lastName, suffix))
	phone := fmt.Sprintf("+2348%09d", mod(accountID, 1_000_000_000))

	return domain.CustomerProfile{
		CustomerID: customerID, AccountID: accountID,
		FirstName: firstName, LastName: lastName, Email: email, Phone: phone,
	}, true
}

func (m *MockResolver) Close() error { return nil }

func mod(n, m int64) int64 {
	if m == 0 {
		return 0
	}
	r := n % m
	if r < 0 {
		r += m
	}
	return r
}
