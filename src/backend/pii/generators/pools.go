package generators

var fakePersons = []string{
	"James Mitchell", "Sarah Chen", "Robert Alvarez", "Emily Nakamura",
	"David Kowalski", "Maria Rossi", "Michael Okonkwo", "Lisa Johansson",
	"Thomas Brennan", "Amanda Singh", "William Park", "Rachel Moreau",
	"Christopher Tanaka", "Jennifer O'Brien", "Daniel Ivanov", "Laura Schmidt",
	"Andrew Petrov", "Stephanie Kim", "Matthew Dubois", "Nicole Andersen",
	"Brian Herrera", "Karen Yamamoto", "Patrick Sullivan", "Megan Becker",
	"Jonathan Larsen", "Allison Fernandez", "Steven Ito", "Rebecca Malone",
	"Gregory Novak", "Catherine Lindqvist",
}

var fakeOrganizations = []string{
	"Meridian Holdings", "Atlas Group", "Pinnacle Advisors", "Summit Capital",
	"Horizon Legal Partners", "Apex Dynamics", "Cornerstone Ventures",
	"Landmark Financial", "Silver Creek Industries", "Ironwood Consulting",
	"Blue Harbor Technologies", "Granite Peak Solutions", "Compass Rose Partners",
	"Keystone Analytics", "Northstar Global", "Pacific Ridge Corp",
	"Sterling Bridge LLC", "Westfield Associates", "Crescent Bay Holdings",
	"Redwood Capital Group",
}

var fakeLocations = []string{
	"742 Evergreen Terrace, Springfield, IL 62704",
	"1234 Maple Drive, Suite 300, Portland, OR 97201",
	"567 Oak Boulevard, Austin, TX 78701",
	"890 Pine Street, Denver, CO 80202",
	"2345 Elm Avenue, Boston, MA 02108",
	"678 Cedar Lane, Seattle, WA 98101",
	"1011 Birch Road, Nashville, TN 37201",
	"1213 Walnut Court, Miami, FL 33101",
	"1415 Spruce Way, Chicago, IL 60601",
	"1617 Aspen Circle, San Francisco, CA 94102",
	"1819 Willow Path, Phoenix, AZ 85001",
	"2021 Chestnut Drive, Philadelphia, PA 19101",
	"2223 Poplar Street, Atlanta, GA 30301",
	"2425 Magnolia Blvd, Dallas, TX 75201",
	"2627 Cypress Lane, Minneapolis, MN 55401",
}

var fakeDealCodenames = []string{
	"Project Falcon", "Project Orion", "Project Nexus", "Project Horizon",
	"Project Zenith", "Project Apex", "Project Titan", "Project Nova",
	"Project Eclipse", "Project Vanguard", "Project Aurora", "Project Summit",
	"Project Atlas", "Project Pinnacle", "Project Compass",
}

var fakeLawFirms = []string{
	"Baker & Associates", "Thompson LLP", "Crane Legal Group",
	"Marshall & Briggs", "Ashford Law Offices", "Davenport Partners",
	"Sterling & Young", "Whitmore Coleman LLP",
}

var fakePrivilegeMarkers = []string{
	"PRIVILEGED AND CONFIDENTIAL",
	"ATTORNEY-CLIENT PRIVILEGE",
	"ATTORNEY WORK PRODUCT",
	"PROTECTED COMMUNICATION",
	"LEGAL PROFESSIONAL PRIVILEGE",
}

// RFC 2606 reserved domains only
var fakeEmailDomains = []string{"example.com", "example.org", "test.example.net", "mail.example.com"}
