package geo

import (
	"math"

	"github.com/wroge/wgs84"
)

// Transverse Mercator on the WGS 84 ellipsoid using Krüger's series to
// sixth order in the third flattening (Karney 2011). Within a few thousand
// kilometres of the central meridian the error is well below a millimetre.

const (
	utmScale         = 0.9996
	utmFalseEasting  = 500000.0
	utmFalseNorthing = 10000000.0
	maxNewtonSteps   = 10
)

type krueger struct {
	e     float64    // first eccentricity
	a     float64    // rectifying radius scaled by k0
	alpha [7]float64 // forward series, index 1..6
	beta  [7]float64 // inverse series, index 1..6
}

var wgs84Krueger = newKrueger(wgs84.A, 1/wgs84.Fi)

func newKrueger(a, f float64) krueger {
	n := f / (2 - f)
	n2, n3 := n*n, n*n*n
	n4, n5, n6 := n3*n, n3*n2, n3*n3

	k := krueger{
		e: math.Sqrt(f * (2 - f)),
		a: utmScale * a / (1 + n) * (1 + n2/4 + n4/64 + n6/256),
	}
	k.alpha = [7]float64{0,
		n/2 - 2*n2/3 + 5*n3/16 + 41*n4/180 - 127*n5/288 + 7891*n6/37800,
		13*n2/48 - 3*n3/5 + 557*n4/1440 + 281*n5/630 - 1983433*n6/1935360,
		61*n3/240 - 103*n4/140 + 15061*n5/26880 + 167603*n6/181440,
		49561*n4/161280 - 179*n5/168 + 6601661*n6/7257600,
		34729*n5/80640 - 3418889*n6/1995840,
		212378941 * n6 / 319334400,
	}
	k.beta = [7]float64{0,
		n/2 - 2*n2/3 + 37*n3/96 - n4/360 - 81*n5/512 + 96199*n6/604800,
		n2/48 + n3/15 - 437*n4/1440 + 46*n5/105 - 1118711*n6/3870720,
		17*n3/480 - 37*n4/840 - 209*n5/4480 + 5569*n6/90720,
		4397*n4/161280 - 11*n5/504 - 830251*n6/7257600,
		4583*n5/161280 - 108847*n6/3991680,
		20648693 * n6 / 638668800,
	}
	return k
}

// centralMeridian returns the zone's central meridian in radians.
func centralMeridian(zone int) float64 {
	return float64(zone*6-183) * math.Pi / 180
}

// conformal maps tan(latitude) to tan(conformal latitude).
func (k krueger) conformal(tau float64) float64 {
	s := math.Hypot(1, tau)
	sigma := math.Sinh(k.e * math.Atanh(k.e*tau/s))
	return tau*math.Hypot(1, sigma) - sigma*s
}

// forward projects geodetic degrees to UTM easting/northing in the zone.
func (k krueger) forward(lat, lon float64, zone int, southern bool) (easting, northing float64) {
	phi := lat * math.Pi / 180
	lambda := lon*math.Pi/180 - centralMeridian(zone)

	taup := k.conformal(math.Tan(phi))
	cosl := math.Cos(lambda)
	xip := math.Atan2(taup, cosl)
	etap := math.Asinh(math.Sin(lambda) / math.Hypot(taup, cosl))

	xi, eta := xip, etap
	for j := 1; j <= 6; j++ {
		fj := 2 * float64(j)
		xi += k.alpha[j] * math.Sin(fj*xip) * math.Cosh(fj*etap)
		eta += k.alpha[j] * math.Cos(fj*xip) * math.Sinh(fj*etap)
	}

	easting = k.a*eta + utmFalseEasting
	northing = k.a * xi
	if southern {
		northing += utmFalseNorthing
	}
	return easting, northing
}

// inverse is the reverse of forward. Latitude comes out of a Newton
// iteration on the conformal latitude.
func (k krueger) inverse(easting, northing float64, zone int, southern bool) (lat, lon float64) {
	if southern {
		northing -= utmFalseNorthing
	}
	eta := (easting - utmFalseEasting) / k.a
	xi := northing / k.a

	xip, etap := xi, eta
	for j := 1; j <= 6; j++ {
		fj := 2 * float64(j)
		xip -= k.beta[j] * math.Sin(fj*xi) * math.Cosh(fj*eta)
		etap -= k.beta[j] * math.Cos(fj*xi) * math.Sinh(fj*eta)
	}

	sinhEta := math.Sinh(etap)
	sinXi, cosXi := math.Sincos(xip)
	taup := sinXi / math.Hypot(sinhEta, cosXi)

	e2 := k.e * k.e
	tau := taup
	for i := 0; i < maxNewtonSteps; i++ {
		ti := k.conformal(tau)
		delta := (taup - ti) / math.Hypot(1, ti) *
			(1 + (1-e2)*tau*tau) / ((1 - e2) * math.Hypot(1, tau))
		tau += delta
		if math.Abs(delta) < 1e-12 {
			break
		}
	}

	lat = math.Atan(tau) * 180 / math.Pi
	lon = (math.Atan2(sinhEta, cosXi) + centralMeridian(zone)) * 180 / math.Pi
	return lat, lon
}
