package catalog

// SeedMeals is the initial catalog.
func SeedMeals() []Meal {
	return []Meal{
		{Position: 1, Title: "Avocado Toast", CookMinutes: 15, Kcal: 230, Category: "Breakfast", Image: "filtermeals/avocado_toast.jpg",
			Description: "Avocado Toast is a nutritious breakfast option made with whole-grain bread topped with mashed avocado and seasoning. It is rich in healthy fats, fiber, and keeps you full for hours."},
		{Position: 2, Title: "Grilled Chicken Bowl", CookMinutes: 25, Kcal: 450, Category: "Lunch", Image: "filtermeals/lunch1.jpg",
			Description: "A protein-packed meal featuring grilled chicken, brown rice, and assorted vegetables. Ideal for post-workout recovery and balanced nutrition."},
		{Position: 3, Title: "Mixed Berry Salad", CookMinutes: 10, Kcal: 150, Category: "Snacks", Image: "filtermeals/snack1.jpg",
			Description: "A refreshing mix of strawberries, blueberries, and raspberries. This antioxidant-rich snack helps in reducing inflammation and boosting immunity."},
		{Position: 4, Title: "Vegetable Soup", CookMinutes: 20, Kcal: 180, Category: "Dinner", Image: "filtermeals/dinner1.jpg",
			Description: "A comforting soup made with seasonal vegetables, perfect for a light and healthy dinner. Low in calories but rich in vitamins and fiber."},
		{Position: 5, Title: "Chocolate Mousse", CookMinutes: 30, Kcal: 300, Category: "Desert", Image: "filtermeals/desert1.jpg",
			Description: "A rich and creamy dessert made with dark chocolate and whipped cream. A perfect indulgence to satisfy sweet cravings in moderation."},
		{Position: 6, Title: "Caesar Salad", CookMinutes: 15, Kcal: 270, Category: "Salad", Image: "filtermeals/salad1.jpg",
			Description: "Classic Caesar Salad with romaine lettuce, parmesan, and light dressing. Adds a crisp and savory touch to your meal with balanced nutrients."},
		{Position: 7, Title: "Fresh Orange Juice", CookMinutes: 5, Kcal: 110, Category: "Juice", Image: "filtermeals/juice1.jpg",
			Description: "Freshly squeezed orange juice loaded with Vitamin C. Great for hydration and boosting immune function."},
		{Position: 8, Title: "Tomato Soup", CookMinutes: 20, Kcal: 160, Category: "Soup", Image: "filtermeals/soup1.jpg",
			Description: "Warm and delicious tomato soup, perfect for a cozy dinner. Provides antioxidants like lycopene which support heart health."},
	}
}
