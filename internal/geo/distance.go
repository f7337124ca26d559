package geo

import "math"

// Rayon terrestre moyen en kilomètres (sphère)
const earthRadiusKm = 6371.0

// DistanceKm calcule la distance orthodromique (haversine) entre deux points.
// Les entrées sont toujours des nombres finis, validés par l'appelant.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DeliveryCharge : frais de livraison linéaires en fonction de la distance.
func DeliveryCharge(distanceKm, ratePerKm float64) float64 {
	return distanceKm * ratePerKm
}

// PlatformFee : commission plateforme en pourcentage de la base fournie.
func PlatformFee(base, rate float64) float64 {
	return base * rate
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
