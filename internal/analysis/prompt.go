package analysis

// Prompt is the fixed instruction sent with every photo.
const Prompt = `Analyze the attached image of food. Identify the primary food item and estimate its nutritional values (calories, protein, carbs, fat) for a standard portion size of about 100-150g. ` +
	`Respond ONLY with a valid JSON object with the following keys and value types: "foodName" (string), "calories" (number), "protein" (number), "carbs" (number), "fat" (number). ` +
	`Example: {"foodName": "Spaghetti Bolognese", "calories": 250, "protein": 15, "carbs": 30, "fat": 8}`
