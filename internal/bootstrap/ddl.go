package bootstrap

// createStatements holds one CREATE TABLE per allow-listed table, keyed by
// the allow-list spelling. Identifiers are unquoted, so the store folds them
// to lower case.
var createStatements = map[string]string{
	"Supplier": `
		CREATE TABLE Supplier (
			SupplierID   INT PRIMARY KEY,
			Name         VARCHAR(255) NOT NULL,
			ProductType  VARCHAR(255),
			StreetNumber INT,
			StreetName   VARCHAR(255),
			CityName     VARCHAR(255),
			Province     VARCHAR(255),
			Country      VARCHAR(255),
			PostalCode   VARCHAR(6)
		)`,
	"Product": `
		CREATE TABLE Product (
			ProductID     INT PRIMARY KEY,
			Name          VARCHAR(255) NOT NULL,
			StockQuantity INT DEFAULT 0 CHECK (StockQuantity >= 0),
			ReleaseDate   DATE,
			Price         DECIMAL(10, 2) CHECK (Price >= 0),
			RentalPrice   DECIMAL(10, 2) CHECK (RentalPrice >= 0)
		)`,
	"Inventory": `
		CREATE TABLE Inventory (
			InventoryID INT PRIMARY KEY,
			Status      VARCHAR(255),
			ProductID   INT REFERENCES Product (ProductID)
		)`,
	"ProductSupplier": `
		CREATE TABLE ProductSupplier (
			ProductID  INT REFERENCES Product (ProductID),
			SupplierID INT REFERENCES Supplier (SupplierID),
			PRIMARY KEY (ProductID, SupplierID)
		)`,
	// Genre, Artist and Producer hold comma-separated lists.
	"Music": `
		CREATE TABLE Music (
			ProductID INT PRIMARY KEY REFERENCES Product (ProductID),
			Genre     VARCHAR(255),
			Artist    VARCHAR(255),
			Producer  VARCHAR(255)
		)`,
	"Movie": `
		CREATE TABLE Movie (
			ProductID INT PRIMARY KEY REFERENCES Product (ProductID),
			Genre     VARCHAR(255),
			Director  VARCHAR(255),
			Studio    VARCHAR(255)
		)`,
	"Customer": `
		CREATE TABLE Customer (
			CustomerID    INT PRIMARY KEY,
			Name          VARCHAR(255) NOT NULL,
			PhoneNumber   VARCHAR(20),
			StoreStanding VARCHAR(255),
			WishlistItem  VARCHAR(255)
		)`,
	"Rentals": `
		CREATE TABLE Rentals (
			RentalID   INT PRIMARY KEY,
			RentalDate DATE NOT NULL,
			ReturnDate DATE,
			Status     VARCHAR(255),
			CustomerID INT REFERENCES Customer (CustomerID)
		)`,
	"InventoryCustomer": `
		CREATE TABLE InventoryCustomer (
			CustomerID  INT REFERENCES Customer (CustomerID),
			InventoryID INT REFERENCES Inventory (InventoryID),
			PRIMARY KEY (CustomerID, InventoryID)
		)`,
	"Transactions": `
		CREATE TABLE Transactions (
			TransactionID   INT PRIMARY KEY,
			TransactionDate DATE NOT NULL,
			TransactionType VARCHAR(255),
			AmountExchanged DECIMAL(10, 2),
			CustomerID      INT REFERENCES Customer (CustomerID),
			InventoryID     INT REFERENCES Inventory (InventoryID)
		)`,
	"InventoryProduct": `
		CREATE TABLE InventoryProduct (
			InventoryID INT REFERENCES Inventory (InventoryID),
			ProductID   INT REFERENCES Product (ProductID),
			PRIMARY KEY (InventoryID, ProductID)
		)`,
}
