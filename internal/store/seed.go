package store

// Seed returns the built-in dataset used when nothing is persisted or the
// persisted blob is unreadable. Every call returns fresh slices.
func Seed() State {
	return State{
		Products:       seedProducts(),
		Clients:        seedClients(),
		Invoices:       []Invoice{},
		Categories:     DefaultCategories(),
		PaymentMethods: DefaultPaymentMethods(),
		Settings:       DefaultSettings(),
		UI:             DefaultUI(),
	}
}

func seedProducts() []Product {
	return []Product{
		{ID: "1", Name: "Abaya Moderne Noire", Category: "Abayas", Price: 25000, Stock: 25, MinStock: 5,
			Description: "Abaya élégante en tissu fluide, coupe moderne", SKU: "ABY-001", Supplier: "Fournisseur Dubai",
			Image: "/images/abaya-black.jpg", CreatedAt: "2024-01-15", UpdatedAt: "2024-01-15"},
		{ID: "2", Name: "Voile Soie Premium", Category: "Voiles & Hijabs", Price: 8500, Stock: 40, MinStock: 10,
			Description: "Voile en soie haute qualité, plusieurs coloris", SKU: "VIL-001", Supplier: "Soie de Lyon",
			Image: "/images/hijab-silk.jpg", CreatedAt: "2024-01-10", UpdatedAt: "2024-01-10"},
		{ID: "3", Name: "Robe Longue Chic", Category: "Robes", Price: 22000, Stock: 20, MinStock: 3,
			Description: "Robe longue élégante pour occasions spéciales", SKU: "ROB-001", Supplier: "Atelier Marrakech",
			Image: "/images/dress-elegant.jpg", CreatedAt: "2024-01-12", UpdatedAt: "2024-01-12"},
		{ID: "4", Name: "Ensemble Tunique-Pantalon", Category: "Ensembles", Price: 18500, Stock: 15, MinStock: 5,
			Description: "Ensemble moderne tunique + pantalon assorti", SKU: "ENS-001", Supplier: "Mode Istanbul",
			Image: "/images/ensemble-modern.jpg", CreatedAt: "2024-01-08", UpdatedAt: "2024-01-08"},
		{ID: "5", Name: "Tenue Enfant Eid", Category: "Vêtements Enfant", Price: 12000, Stock: 30, MinStock: 8,
			Description: "Ensemble festif pour enfant, tailles 2-12 ans", SKU: "ENF-001", Supplier: "Kids Fashion",
			Image: "/images/kids-eid.jpg", CreatedAt: "2024-01-05", UpdatedAt: "2024-01-05"},
		{ID: "6", Name: "Box Ramadan Famille", Category: "Box Ramadan", Price: 35000, Stock: 20, MinStock: 5,
			Description: "Box complète avec dattes, miel et accessoires religieux", SKU: "BOX-001", Supplier: "Produits du Maghreb",
			Image: "/images/ramadan-box.jpg", CreatedAt: "2024-01-03", UpdatedAt: "2024-01-03"},
		{ID: "7", Name: "Chapelet Tasbih Bois", Category: "Accessoires Religieux", Price: 5500, Stock: 50, MinStock: 15,
			Description: "Chapelet artisanal en bois d'olivier, 99 perles", SKU: "ACC-001", Supplier: "Artisanat Palestine",
			Image: "/images/tasbih-wood.jpg", CreatedAt: "2024-01-01", UpdatedAt: "2024-01-01"},
		{ID: "8", Name: "Pantalon Large Femme", Category: "Pantalons", Price: 15000, Stock: 25, MinStock: 8,
			Description: "Pantalon large confortable, plusieurs tailles", SKU: "PAN-001", Supplier: "Textile Casablanca",
			Image: "/images/pants-wide.jpg", CreatedAt: "2023-12-28", UpdatedAt: "2023-12-28"},
	}
}

func seedClients() []Client {
	return []Client{
		{ID: "1", Name: "Aminata Traoré", Email: "aminata.traore@gmail.com", Phone: "+225 0748526934",
			Address: "Cocody Riviera, Abidjan", ClientType: ClientIndividual, RegistrationDate: "2023-11-15",
			TotalPurchases: 125000, LastPurchase: "2024-01-20", Notes: "Cliente fidèle, préfère les abayas noires"},
		{ID: "2", Name: "Fatoumata Koné", Email: "fatoumata.kone@yahoo.fr", Phone: "+225 0587462139",
			Address: "Yopougon Selmer, Abidjan", ClientType: ClientIndividual, RegistrationDate: "2023-12-01",
			TotalPurchases: 89000, LastPurchase: "2024-01-18", Notes: "Commande souvent pour ses filles"},
		{ID: "3", Name: "Mariam Ouattara", Email: "mariam.ouattara@orange.ci", Phone: "+225 0769854213",
			Address: "Plateau Centre-ville, Abidjan", ClientType: ClientBusiness, RegistrationDate: "2023-10-20",
			TotalPurchases: 245000, LastPurchase: "2024-01-22", Notes: "Revendeuse, commandes en gros"},
		{ID: "4", Name: "Khadija Diabaté", Email: "khadija.diabate@gmail.com", Phone: "+225 0654789123",
			Address: "Marcory Zone 4, Abidjan", ClientType: ClientIndividual, RegistrationDate: "2023-09-10",
			TotalPurchases: 67000, LastPurchase: "2024-01-15", Notes: "Préfère les couleurs vives"},
	}
}

// DefaultCategories lists the product categories offered out of the box.
func DefaultCategories() []string {
	return []string{
		"Abayas",
		"Voiles & Hijabs",
		"Robes",
		"Tuniques",
		"Ensembles",
		"Pantalons",
		"Vêtements Enfant",
		"Box Ramadan",
		"Accessoires Religieux",
		"Livres Islamiques",
	}
}

// DefaultPaymentMethods lists the accepted payment methods.
func DefaultPaymentMethods() []PaymentMethod {
	return []PaymentMethod{
		{ID: "orange_money", Name: "Orange Money", Icon: "📱"},
		{ID: "mtn_money", Name: "MTN Mobile Money", Icon: "📱"},
		{ID: "moov_money", Name: "Moov Money", Icon: "📱"},
		{ID: "wave", Name: "Wave", Icon: "💳"},
		{ID: "especes", Name: "Espèces", Icon: "💵"},
		{ID: "virement", Name: "Virement bancaire", Icon: "🏦"},
		{ID: "cheque", Name: "Chèque", Icon: "📝"},
	}
}

// DefaultSettings returns the factory settings.
func DefaultSettings() Settings {
	return Settings{
		BusinessInfo: BusinessInfo{
			Name:      "Al Madinah Boutique",
			Address:   "Cocody Riviera, Abidjan, Côte d'Ivoire",
			Phone:     "+225 27 22 48 15 63",
			Email:     "contact@alamadinah.ci",
			Website:   "www.alamadinah.ci",
			Logo:      "/images/logo.png",
			TaxNumber: "CI-ABJ-2023-001234",
			Currency:  "F CFA",
		},
		InvoiceSettings: InvoiceSettings{
			Prefix:             "ALM",
			StartNumber:        1,
			TaxRate:            18,
			ShowTax:            true,
			PaymentTermsDays:   30,
			TermsAndConditions: "Paiement à 30 jours. Retard de paiement entraîne des pénalités.",
			FooterNote:         "Merci pour votre confiance - Al Madinah Boutique",
		},
		PaymentSettings: PaymentSettings{Mode: "test"},
		BarcodeSettings: BarcodeSettings{
			ProductFormat:  "CODE128",
			InvoiceFormat:  "CODE128",
			ShowOnProducts: true,
			ShowOnInvoices: true,
			ProductPrefix:  "ALM",
			InvoicePrefix:  "INV",
		},
		Notifications: NotificationSettings{
			LowStock:        true,
			NewOrder:        true,
			PaymentReminder: true,
			StockThreshold:  5,
		},
	}
}

// DefaultUI returns the initial presentation preferences.
func DefaultUI() UIState {
	return UIState{Theme: "light", Language: "fr"}
}
